package store

import "github.com/codewandler/symbio-go/core/symbio"

// Every store operation reports exactly one result to its interest. A nil
// interest discards the result.

type WriteResult struct {
	ID           string
	State        any
	StateVersion int
	Sources      []any
	Metadata     symbio.Metadata
	Object       any
	Err          error
}

func (r WriteResult) Outcome() Outcome { return OutcomeOf(r.Err) }

type ReadResult struct {
	ID           string
	State        any
	StateVersion int
	Metadata     symbio.Metadata
	Object       any
	Err          error
}

func (r ReadResult) Outcome() Outcome { return OutcomeOf(r.Err) }

// QueryItem is one state matched by a query.
type QueryItem struct {
	ID           string
	State        any
	StateVersion int
	Metadata     symbio.Metadata
}

type QueryResult struct {
	Expression QueryExpression
	Items      []QueryItem
	Object     any
	Err        error
}

func (r QueryResult) Outcome() Outcome { return OutcomeOf(r.Err) }

func (r QueryResult) Size() int { return len(r.Items) }

// States returns the matched state objects in result order.
func (r QueryResult) States() []any {
	out := make([]any, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.State
	}
	return out
}

type AppendResult struct {
	StreamName string
	// StreamVersion is the version of the last appended source.
	StreamVersion int
	Sources       []any
	Snapshot      any
	Metadata      symbio.Metadata
	Object        any
	Err           error
}

func (r AppendResult) Outcome() Outcome { return OutcomeOf(r.Err) }

type (
	WriteResultInterest  interface{ WriteResultedIn(WriteResult) }
	ReadResultInterest   interface{ ReadResultedIn(ReadResult) }
	QueryResultInterest  interface{ QueryResultedIn(QueryResult) }
	AppendResultInterest interface{ AppendResultedIn(AppendResult) }
)

type (
	WriteResultFunc  func(WriteResult)
	ReadResultFunc   func(ReadResult)
	QueryResultFunc  func(QueryResult)
	AppendResultFunc func(AppendResult)
)

func (f WriteResultFunc) WriteResultedIn(r WriteResult)    { f(r) }
func (f ReadResultFunc) ReadResultedIn(r ReadResult)       { f(r) }
func (f QueryResultFunc) QueryResultedIn(r QueryResult)    { f(r) }
func (f AppendResultFunc) AppendResultedIn(r AppendResult) { f(r) }
