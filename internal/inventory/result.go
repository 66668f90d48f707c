package inventory

// Status tells a renderer why a kind has (or lacks) records.
type Status string

const (
	StatusOK     Status = "ok"
	StatusEmpty  Status = "empty"
	StatusDenied Status = "denied"
	StatusFailed Status = "failed"
)

// NoAccessReason is the notice shown for kinds the caller may not read.
const NoAccessReason = "(NO IAM ACCESS)"

// Result is the outcome of collecting one kind.
type Result struct {
	Kind    Kind     `json:"kind"`
	Status  Status   `json:"status"`
	Reason  string   `json:"reason,omitempty"`
	Records []Record `json:"-"`
}

// OK wraps collected records. An empty list becomes StatusEmpty.
func OK(kind Kind, records []Record) Result {
	if len(records) == 0 {
		return Empty(kind)
	}
	return Result{Kind: kind, Status: StatusOK, Records: records}
}

// Empty marks a kind that was readable but has no resources.
func Empty(kind Kind) Result {
	return Result{Kind: kind, Status: StatusEmpty}
}

// Denied marks a kind the credentials could not read.
func Denied(kind Kind) Result {
	return Result{Kind: kind, Status: StatusDenied, Reason: NoAccessReason}
}

// Failed marks a kind whose collection failed for another reason.
func Failed(kind Kind, reason string) Result {
	return Result{Kind: kind, Status: StatusFailed, Reason: reason}
}

// Unavailable reports whether the kind carries an error sentinel.
func (r Result) Unavailable() bool {
	return r.Status == StatusDenied || r.Status == StatusFailed
}

// Merge combines results of the same kind from several regions. Records are
// concatenated; the merged status is OK if any part had records, otherwise the
// first unavailable status, otherwise Empty.
func Merge(kind Kind, parts ...Result) Result {
	var (
		records []Record
		bad     *Result
	)
	for i := range parts {
		p := parts[i]
		records = append(records, p.Records...)
		if bad == nil && p.Unavailable() {
			bad = &parts[i]
		}
	}
	if len(records) > 0 {
		return Result{Kind: kind, Status: StatusOK, Records: records}
	}
	if bad != nil {
		return Result{Kind: kind, Status: bad.Status, Reason: bad.Reason}
	}
	return Empty(kind)
}

// Inventory is everything collected in one run, before any environment slicing.
type Inventory struct {
	Results             map[Kind]Result
	Subnets             []Subnet
	EventSourceMappings []EventSourceMapping
	Account             string
	Regions             []string
}

// New returns an inventory with every declared kind marked Empty.
func New() *Inventory {
	inv := &Inventory{Results: make(map[Kind]Result, len(Kinds))}
	for _, k := range Kinds {
		inv.Results[k] = Empty(k)
	}
	return inv
}

// Set stores the result for its kind.
func (inv *Inventory) Set(r Result) {
	if inv.Results == nil {
		inv.Results = make(map[Kind]Result)
	}
	inv.Results[r.Kind] = r
}

// Result returns the result for a kind, Empty if never set.
func (inv *Inventory) Result(kind Kind) Result {
	if r, ok := inv.Results[kind]; ok {
		return r
	}
	return Empty(kind)
}

// Records returns the records of a kind, nil when unavailable.
func (inv *Inventory) Records(kind Kind) []Record {
	return inv.Result(kind).Records
}

// Statuses returns the status of every declared kind in declaration order.
func (inv *Inventory) Statuses() []Result {
	out := make([]Result, 0, len(Kinds))
	for _, k := range Kinds {
		r := inv.Result(k)
		out = append(out, Result{Kind: r.Kind, Status: r.Status, Reason: r.Reason})
	}
	return out
}
