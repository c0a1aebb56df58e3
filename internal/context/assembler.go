package context

import "strings"

// BlockKind names the fixed sections of an assembled system prompt, in
// their required ordering.
type BlockKind int

const (
	BlockStaticPrefix BlockKind = iota
	BlockRules
	BlockTools
	BlockMemory
	BlockDynamic
)

// cacheable reports whether a block of this kind carries a cache
// marker. Only the dynamic suffix is excluded, so repeated iterations
// keep the same cache-key prefix byte-identical (§4.6).
func (k BlockKind) cacheable() bool { return k != BlockDynamic }

// Block is one section of the assembled prompt.
type Block struct {
	Kind    BlockKind
	Content string

	// CacheMarked is true when this block's content is part of the
	// stable, cacheable prefix.
	CacheMarked bool
}

// Sections holds the raw content for each fixed section before
// assembly. Empty fields contribute no block.
type Sections struct {
	StaticPrefix string
	Rules        string
	Tools        string
	Memory       string
	Dynamic      string
}

// Assembler builds an ordered sequence of prompt blocks from a
// Sections value, always in staticPrefix → rules → tools → memory →
// dynamic order, so that a provider-side prompt cache can key on the
// byte-identical cacheable prefix across iterations (§4.6).
type Assembler struct{}

// NewAssembler constructs an Assembler. It carries no state: callers
// are responsible for keeping the structured content that feeds each
// section deterministically serialised (sorted keys, stable list
// order) before calling Assemble.
func NewAssembler() *Assembler { return &Assembler{} }

// Assemble builds the ordered block sequence for one iteration. An
// empty section contributes no block; if every section is empty the
// result is an empty slice.
func (a *Assembler) Assemble(s Sections) []Block {
	order := []struct {
		kind    BlockKind
		content string
	}{
		{BlockStaticPrefix, s.StaticPrefix},
		{BlockRules, s.Rules},
		{BlockTools, s.Tools},
		{BlockMemory, s.Memory},
		{BlockDynamic, s.Dynamic},
	}

	blocks := make([]Block, 0, len(order))
	for _, o := range order {
		if o.content == "" {
			continue
		}
		blocks = append(blocks, Block{
			Kind:        o.kind,
			Content:     o.content,
			CacheMarked: o.kind.cacheable(),
		})
	}
	return blocks
}

// Render concatenates the assembled blocks into the final system
// prompt text, separated by blank lines.
func Render(blocks []Block) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.Content
	}
	return strings.Join(parts, "\n\n")
}

// CachePrefix returns the concatenation of only the cache-marked
// blocks, i.e. the portion of the prompt a provider-side cache can key
// on across iterations.
func CachePrefix(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.CacheMarked {
			parts = append(parts, b.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}
