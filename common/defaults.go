// Per-user defaults for common command line options, read from ~/.slurmacct.

package common

import (
	"errors"
	"os"
	"path"

	ini "github.com/lars-t-hansen/ini"
)

// MT: Constant after initialization
var (
	p                = ini.NewParser()
	store            *ini.Store
	source           = p.AddSection("source")
	SourceConfig     = source.AddString("config")
	SourceCluster    = source.AddString("cluster")
	SourceSacct      = source.AddString("sacct")
	SourceFrom       = source.AddString("from")
	SourceTo         = source.AddString("to")
	export           = p.AddSection("export")
	ExportDatabase   = export.AddString("database")
	ExportTable      = export.AddString("table")
	kafka            = p.AddSection("kafka")
	KafkaBroker      = kafka.AddString("broker")
	KafkaTopic       = kafka.AddString("topic")
)

func init() {
	home := os.Getenv("HOME")
	if home == "" {
		return
	}
	fn := path.Join(path.Clean(home), ".slurmacct")
	input, err := os.Open(fn)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			Log.Errorf("Error in trying to open %s: %s", fn, err.Error())
		}
		return
	}
	defer input.Close()
	store, err = p.Parse(input)
	if err != nil {
		Log.Errorf("Error in trying to parse %s: %s", fn, err.Error())
		return
	}
}

func HasDefault(f *ini.Field) bool {
	return store != nil && f.Present(store)
}

// ApplyDefault fills *sp from the defaults file if the option was not given on the command line.

func ApplyDefault(sp *string, f *ini.Field) bool {
	if *sp != "" || store == nil || !f.Present(store) {
		return false
	}
	*sp = os.ExpandEnv(f.StringVal(store))
	return true
}
