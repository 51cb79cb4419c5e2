/*
tree.go - Account tree aggregator

PURPOSE:
  Builds the account hierarchy, buckets ledger entries by date range, and
  aggregates bottom-up. Every financial statement is a rendering of the
  trees this file produces.

ALGORITHM:
  1. Query ledger entries for the report scope. Reverted originals and
     their reversing mirrors are BOTH included: the pair sums to zero, so
     the net effect is correctly zero rather than silently dropped. This
     one policy applies to every report.
  2. Bucket each entry into the date ranges containing its date, summing
     debit and credit per (account, bucket). Ranges are usually disjoint
     buckets; cumulative reports (balance sheet) pass overlapping ranges
     and an entry then contributes to each range it falls in. An entry
     matching no range at all is a fatal BucketingError.
  3. Build the parent/child account tree restricted to the requested root
     types.
  4. Post-order traversal: children resolve before parents, so a group
     node's per-bucket value is the sum of all descendants regardless of
     tree depth.
  5. Flatten pre-order with depth for display.

SIGNING:
  Asset and Expense balances are debit-positive; Liability, Equity, and
  Income are credit-positive.
*/
package reports

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inkwell-books/inkwell/books"
)

// =============================================================================
// DATE RANGES AND BUCKET VALUES
// =============================================================================

// DateRange is one report bucket with inclusive bounds. A zero From means
// unbounded history (used by cumulative reports).
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	return !t.After(r.To)
}

// Value is the bucketed debit/credit sum for one account and range.
type Value struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Add folds another value in.
func (v Value) Add(o Value) Value {
	return Value{Debit: v.Debit.Add(o.Debit), Credit: v.Credit.Add(o.Credit)}
}

// Balance returns the signed balance under the root type's convention.
func (v Value) Balance(rt books.RootType) decimal.Decimal {
	if rt.DebitPositive() {
		return v.Debit.Sub(v.Credit)
	}
	return v.Credit.Sub(v.Debit)
}

// IsZero reports whether both sides are zero.
func (v Value) IsZero() bool { return v.Debit.IsZero() && v.Credit.IsZero() }

func zeroValues(n int) []Value {
	vs := make([]Value, n)
	for i := range vs {
		vs[i] = Value{Debit: decimal.Zero, Credit: decimal.Zero}
	}
	return vs
}

// =============================================================================
// TREE NODES
// =============================================================================

// Node is one report-time account tree node. Values holds the aggregated
// per-bucket sums (own postings plus all descendants); ephemeral, rebuilt
// per report run.
type Node struct {
	Name     string
	RootType books.RootType
	IsGroup  bool
	Level    int
	Values   []Value // indexed by date range
	Children []*Node
}

// Balance returns the node's signed balance for one bucket.
func (n *Node) Balance(bucket int) decimal.Decimal {
	return n.Values[bucket].Balance(n.RootType)
}

// allZero reports whether the node aggregates to zero across all buckets.
func (n *Node) allZero() bool {
	for _, v := range n.Values {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

// =============================================================================
// TREE CONSTRUCTION
// =============================================================================

// TreeOptions parameterizes a report run.
type TreeOptions struct {
	RootTypes      []books.RootType
	Ranges         []DateRange
	Party          string // optional extra filter
	HideZeroGroups bool
}

// Tree is the aggregated forest for one report run, with one root list
// per requested root type in request order.
type Tree struct {
	Ranges []DateRange
	roots  map[books.RootType][]*Node
	order  []books.RootType
}

// Roots returns the root nodes for one root type.
func (t *Tree) Roots(rt books.RootType) []*Node { return t.roots[rt] }

// RootTypes returns the requested root types in order.
func (t *Tree) RootTypes() []books.RootType { return t.order }

// Total aggregates all roots of a root type per bucket.
func (t *Tree) Total(rt books.RootType) []Value {
	total := zeroValues(len(t.Ranges))
	for _, root := range t.roots[rt] {
		for i, v := range root.Values {
			total[i] = total[i].Add(v)
		}
	}
	return total
}

// BuildTree queries ledger entries, buckets them, and aggregates the
// account hierarchy bottom-up.
func BuildTree(ctx context.Context, st books.Store, opts TreeOptions) (*Tree, error) {
	if len(opts.Ranges) == 0 {
		return nil, errors.New("reports: at least one date range is required")
	}

	wanted := make(map[books.RootType]bool, len(opts.RootTypes))
	for _, rt := range opts.RootTypes {
		wanted[rt] = true
	}

	// The query window spans every configured range.
	var from *time.Time
	to := opts.Ranges[0].To
	unbounded := false
	earliest := time.Time{}
	for _, r := range opts.Ranges {
		if r.From.IsZero() {
			unbounded = true
		} else if earliest.IsZero() || r.From.Before(earliest) {
			earliest = r.From
		}
		if r.To.After(to) {
			to = r.To
		}
	}
	if !unbounded && !earliest.IsZero() {
		from = &earliest
	}

	entries, err := st.LedgerEntries(ctx, books.LedgerFilter{
		Party: opts.Party,
		From:  from,
		To:    &to,
	})
	if err != nil {
		return nil, err
	}

	accounts, err := st.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	catalog := make(map[string]books.Account, len(accounts))
	for _, a := range accounts {
		catalog[a.Name] = a
	}

	// Bucket sums per (account, range). Entries posted to accounts outside
	// the requested root types are ignored; everything else must land in
	// at least one range.
	sums := make(map[string][]Value)
	for _, e := range entries {
		acct, ok := catalog[e.Account]
		if !ok || !wanted[acct.RootType] {
			continue
		}
		matched := false
		for i, r := range opts.Ranges {
			if !r.Contains(e.Date) {
				continue
			}
			matched = true
			vs, ok := sums[e.Account]
			if !ok {
				vs = zeroValues(len(opts.Ranges))
				sums[e.Account] = vs
			}
			vs[i] = vs[i].Add(Value{Debit: e.Debit, Credit: e.Credit})
		}
		if !matched {
			return nil, &books.BucketingError{Entry: e.Name, Date: e.Date}
		}
	}

	// Build the restricted tree.
	nodes := make(map[string]*Node)
	for _, a := range accounts {
		if !wanted[a.RootType] {
			continue
		}
		n := &Node{
			Name:     a.Name,
			RootType: a.RootType,
			IsGroup:  a.IsGroup,
			Values:   zeroValues(len(opts.Ranges)),
		}
		if vs, ok := sums[a.Name]; ok {
			copy(n.Values, vs)
		}
		nodes[a.Name] = n
	}

	tree := &Tree{
		Ranges: opts.Ranges,
		roots:  make(map[books.RootType][]*Node),
		order:  opts.RootTypes,
	}
	for _, a := range accounts {
		n, ok := nodes[a.Name]
		if !ok {
			continue
		}
		if parent, ok := nodes[a.Parent]; ok {
			parent.Children = append(parent.Children, n)
		} else {
			tree.roots[a.RootType] = append(tree.roots[a.RootType], n)
		}
	}
	for _, rt := range opts.RootTypes {
		sort.Slice(tree.roots[rt], func(i, j int) bool {
			return tree.roots[rt][i].Name < tree.roots[rt][j].Name
		})
		for _, root := range tree.roots[rt] {
			aggregate(root, 0)
		}
		if opts.HideZeroGroups {
			tree.roots[rt] = pruneZeroGroups(tree.roots[rt])
		}
	}
	return tree, nil
}

// aggregate resolves children before parents so group values are correct
// at any depth, and assigns display levels along the way.
func aggregate(n *Node, level int) {
	n.Level = level
	sort.Slice(n.Children, func(i, j int) bool { return n.Children[i].Name < n.Children[j].Name })
	for _, c := range n.Children {
		aggregate(c, level+1)
		for i, v := range c.Values {
			n.Values[i] = n.Values[i].Add(v)
		}
	}
}

// pruneZeroGroups drops group nodes whose aggregate is zero across all
// buckets. Non-group leaves are kept so zero-balance postings stay
// visible in detail reports.
func pruneZeroGroups(nodes []*Node) []*Node {
	kept := nodes[:0]
	for _, n := range nodes {
		if n.IsGroup && n.allZero() {
			continue
		}
		n.Children = pruneZeroGroups(n.Children)
		kept = append(kept, n)
	}
	return kept
}

// Flatten renders the forest for one root type in pre-order: parents
// before children, indent equal to depth.
func (t *Tree) Flatten(rt books.RootType) []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		out = append(out, n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, root := range t.roots[rt] {
		walk(root)
	}
	return out
}
