package entity

// DialogButton is one clickable control found inside a permission dialog.
type DialogButton struct {
	Label    string
	Selector string
}

// DialogSnapshot is a read-only view of a permission dialog captured from
// the live page at evaluation time. It is recomputed on every watcher tick
// and thrown away after the policy has seen it.
type DialogSnapshot struct {
	Present     bool
	Description string
	Buttons     []DialogButton
	RawHTML     string
}

// PageInfo describes the page the agent is attached to.
type PageInfo struct {
	URL   string
	Title string
}

// Screenshot is a captured page image, used for the approval audit trail.
type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}
