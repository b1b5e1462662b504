package account

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Chart is an in-memory arena over one snapshot of the chart of accounts.
// Headers and accounts become nodes with parent/child index references, so
// ancestor and descendant queries never touch the database. A Chart is built
// per request and never mutated afterward.
type Chart struct {
	nodes      []chartNode
	byHeaderID map[uuid.UUID]int
}

type chartNode struct {
	header   *Header
	parent   int   // index into nodes, -1 for roots
	children []int // child header nodes, ordered by name
	accounts []*Account
}

// ErrUnknownHeader reports a header reference that is not part of the chart.
type ErrUnknownHeader struct {
	HeaderID uuid.UUID
}

func (e ErrUnknownHeader) Error() string {
	return "header not in chart: " + e.HeaderID.String()
}

// ErrHeaderCycle reports a parent chain that loops back on itself.
type ErrHeaderCycle struct {
	HeaderID uuid.UUID
}

func (e ErrHeaderCycle) Error() string {
	return "header parent chain contains a cycle at: " + e.HeaderID.String()
}

// BuildChart assembles the arena from header and account rows. Accounts are
// attached to their owning header; both levels are ordered by name, which
// makes the derived full numbers stable.
func BuildChart(headers []*Header, accounts []*Account) (*Chart, error) {
	c := &Chart{
		nodes:      make([]chartNode, 0, len(headers)),
		byHeaderID: make(map[uuid.UUID]int, len(headers)),
	}
	for _, h := range headers {
		c.byHeaderID[h.ID] = len(c.nodes)
		c.nodes = append(c.nodes, chartNode{header: h, parent: -1})
	}
	for i, h := range headers {
		if h.ParentID == nil {
			continue
		}
		parentIdx, ok := c.byHeaderID[*h.ParentID]
		if !ok {
			return nil, ErrUnknownHeader{HeaderID: *h.ParentID}
		}
		c.nodes[i].parent = parentIdx
		c.nodes[parentIdx].children = append(c.nodes[parentIdx].children, i)
	}
	for i := range c.nodes {
		children := c.nodes[i].children
		sort.Slice(children, func(a, b int) bool {
			return c.nodes[children[a]].header.Name < c.nodes[children[b]].header.Name
		})
	}
	for _, a := range accounts {
		idx, ok := c.byHeaderID[a.ParentID]
		if !ok {
			return nil, ErrUnknownHeader{HeaderID: a.ParentID}
		}
		c.nodes[idx].accounts = append(c.nodes[idx].accounts, a)
	}
	for i := range c.nodes {
		accts := c.nodes[i].accounts
		sort.Slice(accts, func(a, b int) bool { return accts[a].Name < accts[b].Name })
	}
	// Reject parent cycles before any traversal can loop forever.
	for i := range c.nodes {
		slow, fast := i, i
		for c.nodes[fast].parent != -1 {
			fast = c.nodes[fast].parent
			if c.nodes[fast].parent == -1 {
				break
			}
			fast = c.nodes[fast].parent
			slow = c.nodes[slow].parent
			if slow == fast {
				return nil, ErrHeaderCycle{HeaderID: c.nodes[i].header.ID}
			}
		}
	}
	return c, nil
}

// Roots returns the top-level headers ordered by account type.
func (c *Chart) Roots() []*Header {
	var roots []*Header
	for _, n := range c.nodes {
		if n.parent == -1 {
			roots = append(roots, n.header)
		}
	}
	sort.Slice(roots, func(a, b int) bool { return roots[a].Type < roots[b].Type })
	return roots
}

// Ancestors returns the header chain from the given header up to its root,
// nearest first.
func (c *Chart) Ancestors(headerID uuid.UUID) ([]*Header, error) {
	idx, ok := c.byHeaderID[headerID]
	if !ok {
		return nil, ErrUnknownHeader{HeaderID: headerID}
	}
	var chain []*Header
	for c.nodes[idx].parent != -1 {
		idx = c.nodes[idx].parent
		chain = append(chain, c.nodes[idx].header)
	}
	return chain, nil
}

// Descendants returns all headers and accounts under the given header,
// depth-first in display order. The header itself is included.
func (c *Chart) Descendants(headerID uuid.UUID) ([]*Header, []*Account, error) {
	idx, ok := c.byHeaderID[headerID]
	if !ok {
		return nil, nil, ErrUnknownHeader{HeaderID: headerID}
	}
	var headers []*Header
	var accounts []*Account
	c.walk(idx, func(n chartNode) {
		headers = append(headers, n.header)
		accounts = append(accounts, n.accounts...)
	})
	return headers, accounts, nil
}

func (c *Chart) walk(idx int, visit func(chartNode)) {
	visit(c.nodes[idx])
	for _, child := range c.nodes[idx].children {
		c.walk(child, visit)
	}
}

// SubtreeValueBalance sums the value balances of every account at or below
// the given header.
func (c *Chart) SubtreeValueBalance(headerID uuid.UUID) (decimal.Decimal, error) {
	_, accounts, err := c.Descendants(headerID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.ValueBalance())
	}
	return total, nil
}

// HeaderNumber derives the full number of a header: `T-00000` for roots,
// `T-NN000` otherwise, where T is the account type ordinal and NN the
// header's position in its root's depth-first walk.
func (c *Chart) HeaderNumber(headerID uuid.UUID) (string, error) {
	idx, ok := c.byHeaderID[headerID]
	if !ok {
		return "", ErrUnknownHeader{HeaderID: headerID}
	}
	n := c.nodes[idx]
	if n.parent == -1 {
		return fmt.Sprintf("%d-00000", n.header.Type), nil
	}
	root := idx
	for c.nodes[root].parent != -1 {
		root = c.nodes[root].parent
	}
	position := 0
	found := false
	c.walk(root, func(visited chartNode) {
		if found {
			return
		}
		if visited.header.ID == headerID {
			found = true
			return
		}
		position++
	})
	return fmt.Sprintf("%d-%02d000", n.header.Type, position), nil
}

// AccountNumber derives the full number of an account: the owning header's
// number with the last three digits replaced by the account's 1-based
// position among its name-ordered siblings.
func (c *Chart) AccountNumber(a *Account) (string, error) {
	idx, ok := c.byHeaderID[a.ParentID]
	if !ok {
		return "", ErrUnknownHeader{HeaderID: a.ParentID}
	}
	headerNumber, err := c.HeaderNumber(c.nodes[idx].header.ID)
	if err != nil {
		return "", err
	}
	position := 0
	for i, sibling := range c.nodes[idx].accounts {
		if sibling.ID == a.ID {
			position = i + 1
			break
		}
	}
	if position == 0 {
		// Not attached to the arena; order it among the siblings by name.
		position = 1
		for _, sibling := range c.nodes[idx].accounts {
			if sibling.Name < a.Name {
				position++
			}
		}
	}
	return fmt.Sprintf("%s%03d", headerNumber[:len(headerNumber)-3], position), nil
}
