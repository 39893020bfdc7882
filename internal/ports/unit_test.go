package ports

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-combo/internal/domain"
)

var keyTest = domain.NewKey[domain.CombinedScores]("test")

// mockUnit is a test implementation of the Unit interface
type mockUnit struct {
	name        string
	executeFunc func(context.Context, domain.State) (domain.State, error)
	validateErr error
}

func (m *mockUnit) Name() string {
	return m.name
}

func (m *mockUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if m.executeFunc != nil {
		return m.executeFunc(ctx, state)
	}
	return state, nil
}

func (m *mockUnit) Validate() error {
	return m.validateErr
}

func TestUnit_Interface(t *testing.T) {
	var _ Unit = (*mockUnit)(nil)

	unit := &mockUnit{
		name: "test-unit",
		executeFunc: func(ctx context.Context, state domain.State) (domain.State, error) {
			return domain.With(state, keyTest, domain.CombinedScores{0.5}), nil
		},
	}

	assert.Equal(t, "test-unit", unit.Name(), "Name() mismatch")
	assert.NoError(t, unit.Validate(), "Validate() should not return error")

	initialState := domain.NewState()
	newState, err := unit.Execute(context.Background(), initialState)
	require.NoError(t, err, "Execute() should not return error")

	v, ok := domain.Get(newState, keyTest)
	require.True(t, ok, "Execute() should add test key to state")
	assert.Equal(t, domain.CombinedScores{0.5}, v)

	_, ok = domain.Get(initialState, keyTest)
	assert.False(t, ok, "Execute() should not modify original state")
}

func TestUnit_ValidationFailure(t *testing.T) {
	validationErr := errors.New("invalid configuration")
	unit := &mockUnit{
		name:        "failing-unit",
		validateErr: validationErr,
	}

	err := unit.Validate()
	assert.Equal(t, validationErr, err, "Validate() error mismatch")
}

func TestUnit_ContextCancellation(t *testing.T) {
	unit := &mockUnit{
		name: "context-aware-unit",
		executeFunc: func(ctx context.Context, state domain.State) (domain.State, error) {
			if err := ctx.Err(); err != nil {
				return domain.State{}, err
			}
			return state, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := unit.Execute(ctx, domain.NewState())
	assert.Equal(t, context.Canceled, err, "Execute() with cancelled context should return context.Canceled")
}
