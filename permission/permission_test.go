package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSlug(t *testing.T) {
	valid := []string{"reports:read", "roles:manage", "a:b"}
	for _, s := range valid {
		assert.NoError(t, ValidateSlug(s), s)
	}
	invalid := []string{"", "reports", ":read", "reports:", "a:b:c", "re ports:read"}
	for _, s := range invalid {
		assert.ErrorIs(t, ValidateSlug(s), ErrInvalidSlug, s)
	}

	p := &Permission{Slug: "reports:export"}
	assert.Equal(t, "reports", p.Resource())
	assert.Equal(t, "export", p.Operation())
}

func TestImplied(t *testing.T) {
	assert.Empty(t, Implied("docs:read"))
	assert.Equal(t, []string{"docs:read"}, Implied("docs:update"))
	assert.Equal(t, []string{"docs:read", "docs:update"}, Implied("docs:delete"))
	assert.Equal(t, []string{"docs:read"}, Implied("docs:create"))
	assert.Empty(t, Implied("docs:export"))
	assert.Nil(t, Implied("garbage"))
}

func TestExpand(t *testing.T) {
	got := Expand([]string{"docs:delete", "reports:export"})
	assert.Equal(t, []string{"docs:delete", "docs:read", "docs:update", "reports:export"}, got)
	assert.True(t, Consistent(got))
	assert.False(t, Consistent([]string{"docs:delete"}))
}

func TestCollapse(t *testing.T) {
	held := []string{"docs:read", "docs:update", "docs:delete", "docs:create", "reports:read"}

	assert.Equal(t,
		[]string{"docs:create", "docs:delete", "docs:read", "docs:update"},
		Collapse(held, []string{"docs:read"}),
	)
	assert.Equal(t,
		[]string{"docs:delete", "docs:update"},
		Collapse(held, []string{"docs:update"}),
	)
	assert.Equal(t, []string{"reports:export"}, Collapse(held, []string{"reports:export"}))
}
