package folded

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/langd/internal/pathutil"
	"github.com/standardbeagle/langd/internal/shallow"
)

func TestFold_DirectEmbedPromotesMembers(t *testing.T) {
	base := shallow.Decl{Name: "Base", Kind: "type", DeclaredType: "Base", Body: "type Base struct {\n\tID int\n}"}
	derived := shallow.Decl{Name: "Derived", Kind: "type", DeclaredType: "Derived", Body: "type Derived struct {\n\tBase\n\tName string\n}"}

	resolve := func(name string) (shallow.Decl, pathutil.Path, bool) {
		if name == "Base" {
			return base, pathutil.NewRepoPath("base.go"), true
		}
		return shallow.Decl{}, pathutil.Path{}, false
	}

	folded := Fold(derived, pathutil.NewRepoPath("derived.go"), resolve)
	assert.Equal(t, []string{"Base"}, folded.Embeds)
	require.Contains(t, folded.Members, "Base")
	assert.Equal(t, "Base", folded.Members["Base"].Name)
}

func TestFold_TransitiveEmbedIsResolved(t *testing.T) {
	grand := shallow.Decl{Name: "Grand", Kind: "type", Body: "type Grand struct {\n\tID int\n}"}
	base := shallow.Decl{Name: "Base", Kind: "type", Body: "type Base struct {\n\tGrand\n}"}
	derived := shallow.Decl{Name: "Derived", Kind: "type", Body: "type Derived struct {\n\tBase\n}"}

	resolve := func(name string) (shallow.Decl, pathutil.Path, bool) {
		switch name {
		case "Base":
			return base, pathutil.Path{}, true
		case "Grand":
			return grand, pathutil.Path{}, true
		}
		return shallow.Decl{}, pathutil.Path{}, false
	}

	folded := Fold(derived, pathutil.Path{}, resolve)
	assert.Contains(t, folded.Members, "Base")
	assert.Contains(t, folded.Members, "Grand")
}

func TestFold_SelfEmbedDoesNotInfiniteLoop(t *testing.T) {
	cyclic := shallow.Decl{Name: "Cyclic", Kind: "type", Body: "type Cyclic struct {\n\tCyclic\n}"}
	resolve := func(name string) (shallow.Decl, pathutil.Path, bool) {
		if name == "Cyclic" {
			return cyclic, pathutil.Path{}, true
		}
		return shallow.Decl{}, pathutil.Path{}, false
	}

	done := make(chan Decl, 1)
	go func() { done <- Fold(cyclic, pathutil.Path{}, resolve) }()
	select {
	case folded := <-done:
		assert.Equal(t, []string{"Cyclic"}, folded.Embeds)
	case <-time.After(2 * time.Second):
		t.Fatal("Fold did not terminate on a self-embedding type")
	}
}

func TestFold_UnresolvableEmbedIsListedButNotMembered(t *testing.T) {
	derived := shallow.Decl{Name: "Derived", Kind: "type", Body: "type Derived struct {\n\tUnknown\n}"}
	resolve := func(name string) (shallow.Decl, pathutil.Path, bool) {
		return shallow.Decl{}, pathutil.Path{}, false
	}

	folded := Fold(derived, pathutil.Path{}, resolve)
	assert.Equal(t, []string{"Unknown"}, folded.Embeds)
	assert.NotContains(t, folded.Members, "Unknown")
}

func TestFold_PlainFieldsAreNotTreatedAsEmbeds(t *testing.T) {
	derived := shallow.Decl{Name: "Widget", Kind: "type", Body: "type Widget struct {\n\tName string\n\tCount int\n}"}
	resolve := func(name string) (shallow.Decl, pathutil.Path, bool) {
		return shallow.Decl{}, pathutil.Path{}, false
	}

	folded := Fold(derived, pathutil.Path{}, resolve)
	assert.Empty(t, folded.Embeds)
}
