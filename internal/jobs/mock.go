package jobs

import "context"

// MockPublisher is a Publisher whose behavior is set per test.
type MockPublisher struct {
	PublishUploadFunc func(ctx context.Context, job *UploadStatementJob) error
	CloseFunc         func() error
}

func (m *MockPublisher) PublishUpload(ctx context.Context, job *UploadStatementJob) error {
	if m.PublishUploadFunc != nil {
		return m.PublishUploadFunc(ctx, job)
	}
	return nil
}

func (m *MockPublisher) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
