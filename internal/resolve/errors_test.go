package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionConflictErrorMessageNamesBothPaths(t *testing.T) {
	err := &VersionConflictError{
		OrgSlug: "uniprot", EntrySlug: "p01308",
		PathA: "uniprot:p01308@1.2", VersionA: "1.2",
		PathB: "ncbi:nm-000207 -> uniprot:p01308@1.0", VersionB: "1.0",
	}
	msg := err.Error()
	assert.Contains(t, msg, "uniprot:p01308@1.2")
	assert.Contains(t, msg, "ncbi:nm-000207 -> uniprot:p01308@1.0")
	assert.Contains(t, msg, "1.2")
	assert.Contains(t, msg, "1.0")
}

func TestCycleErrorMessageNamesPath(t *testing.T) {
	err := &CycleError{Path: []string{"a:b", "c:d", "a:b"}}
	assert.Equal(t, "dependency cycle: a:b -> c:d -> a:b", err.Error())
}

func TestUnknownOrganizationErrorMessageNamesSlug(t *testing.T) {
	err := &UnknownOrganizationError{OrgSlug: "not-an-org"}
	assert.Equal(t, "unknown organization 'not-an-org'", err.Error())
}
