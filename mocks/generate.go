package mocks

//go:generate mockgen -destination=api.go -package=mocks -mock_names=Client=APIMock github.com/pushci/receiver/api Client
//go:generate mockgen -destination=git.go -package=mocks -mock_names=Client=GitMock github.com/pushci/receiver/git Client
//go:generate mockgen -destination=tools.go -package=mocks -mock_names=Tools=ToolsMock github.com/pushci/receiver/runner Tools
//go:generate mockgen -destination=notifier.go -package=mocks -mock_names=Notifier=NotifierMock github.com/pushci/receiver/notify Notifier
//go:generate mockgen -destination=storage.go -package=mocks -mock_names=Base=StorageMock github.com/pushci/receiver/storage Base
