package httpapi

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/resolve"
)

func TestResolveErrorToBDPErrMapsUnknownOrganizationToValidation(t *testing.T) {
	err := resolveErrorToBDPErr(&resolve.UnknownOrganizationError{OrgSlug: "not-an-org"})

	require.Equal(t, bdperr.KindValidation, bdperr.KindOf(err))
	require.Equal(t, bdperr.KindValidation.HTTPStatus(), 400)
	require.Contains(t, err.Error(), "unknown organization 'not-an-org'")
}

func TestResolveErrorToBDPErrMapsConflictsToConflict(t *testing.T) {
	err := resolveErrorToBDPErr(&resolve.CycleError{Path: []string{"a:b", "c:d", "a:b"}})

	require.Equal(t, bdperr.KindConflict, bdperr.KindOf(err))
}
