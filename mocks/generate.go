package mocks

//go:generate mockgen -destination=./mock_backend.go -package=mocks github.com/rxtech-lab/argo-sync/internal/realtime Backend
//go:generate mockgen -destination=./mock_push_channel.go -package=mocks github.com/rxtech-lab/argo-sync/internal/realtime PushChannel
//go:generate mockgen -destination=./mock_user_data_source.go -package=mocks github.com/rxtech-lab/argo-sync/internal/session UserDataSource
