package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vertexdlt/sablec/backend"
	"github.com/vertexdlt/sablec/mir"
	"github.com/vertexdlt/sablec/mir/passes"
	"github.com/vertexdlt/sablec/validate"
	"github.com/vertexdlt/sablec/wasm"
)

var (
	translateOpts backend.Options
	dumpMIR       bool
)

var translateCmd = &cobra.Command{
	Use:   "translate <module.wasm>",
	Short: "Parse, validate and translate a module, reporting the native instance layout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTranslate(args[0])
	},
}

func init() {
	flags := translateCmd.Flags()
	flags.BoolVar(&translateOpts.SkipMemBoundaryCheck, "skip-mem-boundary-check", false, "omit linear memory bounds guards")
	flags.BoolVar(&translateOpts.SkipTblBoundaryCheck, "skip-tbl-boundary-check", false, "omit table bounds guards ahead of call_indirect")
	flags.BoolVar(&translateOpts.AssumeMemRWAligned, "assume-mem-rw-aligned", false, "lower loads/stores at natural alignment instead of alignment 1")
	flags.BoolVar(&dumpMIR, "dump-mir", false, "print the translated MIR module to stdout before lowering")
	rootCmd.AddCommand(translateCmd)
}

func runTranslate(path string) error {
	mf, err := loadModuleFile(path)
	if err != nil {
		return err
	}
	defer mf.Close()

	wmod, err := wasm.ParseModule(mf.Bytes())
	if err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}

	if err := validate.Module(wmod); err != nil {
		return errors.Wrapf(err, "validate %s", path)
	}

	mmod, err := mir.TranslateModule(wmod)
	if err != nil {
		return errors.Wrapf(err, "translate %s", path)
	}

	passes.SetLogger(log)
	for _, fn := range mmod.Functions {
		if fn.Imported {
			continue
		}
		log.WithField("func", fn.Name()).Debug("running passes")
		passes.Run(fn)
	}

	if dumpMIR {
		if err := mir.Fprint(os.Stdout, mmod); err != nil {
			return errors.Wrapf(err, "dump mir for %s", path)
		}
	}

	layout := backend.BuildLayout(mmod)

	fmt.Printf("functions: %d (%d imported, %d exported)\n",
		layout.Functions.Size, layout.Functions.ImportSize, layout.Functions.ExportSize)
	fmt.Printf("memories:  %d (%d imported, %d exported)\n",
		layout.Memories.Size, layout.Memories.ImportSize, layout.Memories.ExportSize)
	fmt.Printf("tables:    %d (%d imported, %d exported)\n",
		layout.Tables.Size, layout.Tables.ImportSize, layout.Tables.ExportSize)
	fmt.Printf("globals:   %d (%d imported, %d exported)\n",
		layout.Globals.Size, layout.Globals.ImportSize, layout.Globals.ExportSize)
	fmt.Printf("instance slots: %d\n", layout.NumSlots())

	return nil
}
