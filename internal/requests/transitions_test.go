package requests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/paintdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/paintdesk-backend/pkg/errors"
)

func TestPolicyEdges(t *testing.T) {
	p := Policy{}
	allowed := map[[2]enums.RequestStatus]bool{
		{enums.RequestStatusPending, enums.RequestStatusProcessing}:   true,
		{enums.RequestStatusPending, enums.RequestStatusWaiting}:      true,
		{enums.RequestStatusPending, enums.RequestStatusRejected}:     true,
		{enums.RequestStatusWaiting, enums.RequestStatusProcessing}:   true,
		{enums.RequestStatusProcessing, enums.RequestStatusCompleted}: true,
	}

	for _, from := range enums.RequestStatuses() {
		for _, to := range enums.RequestStatuses() {
			want := allowed[[2]enums.RequestStatus{from, to}]
			assert.Equalf(t, want, p.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestPolicyTerminalStatesHaveNoEdges(t *testing.T) {
	p := Policy{AllowWaitingReject: true}
	assert.Empty(t, p.Allowed(enums.RequestStatusCompleted))
	assert.Empty(t, p.Allowed(enums.RequestStatusRejected))
}

func TestPolicyWaitingRejectToggle(t *testing.T) {
	assert.False(t, Policy{}.CanTransition(enums.RequestStatusWaiting, enums.RequestStatusRejected))
	assert.True(t, Policy{AllowWaitingReject: true}.CanTransition(enums.RequestStatusWaiting, enums.RequestStatusRejected))
}

func TestPolicyValidateDetails(t *testing.T) {
	err := Policy{}.Validate(enums.RequestStatusCompleted, enums.RequestStatusProcessing)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInvalidTransition, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, enums.RequestStatusCompleted, details["from"])
	assert.Equal(t, enums.RequestStatusProcessing, details["to"])
	assert.Equal(t, []enums.RequestStatus{}, details["allowed"])
}

func TestPolicyAllowedDoesNotAliasTable(t *testing.T) {
	p := Policy{AllowWaitingReject: true}
	_ = p.Allowed(enums.RequestStatusWaiting)
	assert.Equal(t, []enums.RequestStatus{enums.RequestStatusProcessing}, Policy{}.Allowed(enums.RequestStatusWaiting))
}
