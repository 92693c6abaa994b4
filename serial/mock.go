package serial

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCommander is a testify mock of Commander for driver unit tests.
type MockCommander struct {
	mock.Mock
}

var _ Commander = (*MockCommander)(nil)

func NewMockCommander() *MockCommander {
	return &MockCommander{}
}

func (m *MockCommander) RoundTrip(ctx context.Context, cmd []byte, bound ReadBound) ([]byte, error) {
	args := m.Called(ctx, cmd, bound)
	data, _ := args.Get(0).([]byte)

	return data, args.Error(1)
}

func (m *MockCommander) Close() error {
	args := m.Called()
	return args.Error(0)
}
