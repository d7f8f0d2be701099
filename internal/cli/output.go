package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"nvmenv/pkg/pmem"
)

// ObjectView is the printed form of one pool object.
type ObjectView struct {
	ID        pmem.ObjectID `json:"id"`
	Name      string        `json:"name"`
	Committed int           `json:"committed"`
	Capacity  int           `json:"capacity"`
}

func viewOf(info pmem.Info) ObjectView {
	return ObjectView{
		ID:        info.ID,
		Name:      info.Name,
		Committed: info.Committed,
		Capacity:  info.Capacity,
	}
}

// RouteView is the printed routing decision for one name.
type RouteView struct {
	Name    string `json:"name"`
	Backend string `json:"backend"`
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func (f *OutputFormatter) json(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (f *OutputFormatter) Objects(objects []ObjectView) error {
	if f.Format == "json" {
		if objects == nil {
			objects = []ObjectView{}
		}
		return f.json(objects)
	}
	w := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOMMITTED\tCAPACITY\tNAME")
	for _, o := range objects {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\n", o.ID, o.Committed, o.Capacity, o.Name)
	}
	return w.Flush()
}

func (f *OutputFormatter) Object(object ObjectView) error {
	if f.Format == "json" {
		return f.json(object)
	}
	_, err := fmt.Fprintf(f.Writer, "name:      %s\nid:        %d\ncommitted: %d\ncapacity:  %d\n",
		object.Name, object.ID, object.Committed, object.Capacity)
	return err
}

func (f *OutputFormatter) Routes(routes []RouteView) error {
	if f.Format == "json" {
		return f.json(routes)
	}
	w := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	for _, r := range routes {
		fmt.Fprintf(w, "%s\t%s\n", r.Backend, r.Name)
	}
	return w.Flush()
}
