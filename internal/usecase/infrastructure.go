package usecase

import (
	"context"
	"time"

	"github.com/sisaket-charity/go-backend/internal/domain"
)

type ImagesInfra interface {
	UploadImage(ctx context.Context, req *UploadImageReq) (string, error)
	CleanupImages(keys []string)
	WaitForCleanup(ctx context.Context) error
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

type TokenIssuer interface {
	Issue(user *domain.User) (string, time.Time, error)
}
