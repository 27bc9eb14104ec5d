package storage

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func Initialize(mode string, ctx *cli.Context) (Base, error) {
	local, err := NewLocal(ctx.String("log-dir"))
	if err != nil {
		return nil, err
	}

	switch mode {
	case "local":
		return local, nil
	case "s3":
		cmdLineArg := "log-s3-bucket-name"
		if !ctx.IsSet(cmdLineArg) {
			return nil, fmt.Errorf("%s: Must be set for storage mode 's3'", cmdLineArg)
		}
		return NewS3(local, ctx.String(cmdLineArg), ctx.String("log-s3-prefix"))
	default:
		return nil, fmt.Errorf("unknown storage mode %s", mode)
	}
}
