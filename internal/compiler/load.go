package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/rcore/internal/ir"
)

// CompileAll compiles every net under the top-level "net" struct of v, in
// source order. It collects errors instead of stopping at the first one;
// nets that failed are left out of the result.
func CompileAll(v cue.Value, opts Options) ([]ir.NetSpec, []error) {
	netsVal := v.LookupPath(cue.ParsePath("net"))
	if !netsVal.Exists() {
		return nil, nil
	}
	iter, err := netsVal.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var (
		nets []ir.NetSpec
		errs []error
	)
	for iter.Next() {
		spec, err := CompileNet(iter.Value(), opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("net.%s: %w", iter.Selector().Unquoted(), err))
			continue
		}
		nets = append(nets, *spec)
	}
	return nets, errs
}

// CompileFiles compiles each CUE file on its own and returns all nets they
// declare. A net name declared by two files is an error. Used by scenarios,
// which list description files rather than a CUE package directory.
func CompileFiles(paths []string, opts Options) ([]ir.NetSpec, error) {
	ctx := cuecontext.New()
	seen := make(map[string]string)

	var nets []ir.NetSpec
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		v := ctx.CompileBytes(src, cue.Filename(path))
		if err := v.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		compiled, errs := CompileAll(v, opts)
		if len(errs) > 0 {
			return nil, errs[0]
		}
		for _, n := range compiled {
			if prev, dup := seen[n.Name]; dup {
				return nil, fmt.Errorf("net %q declared in both %s and %s", n.Name, prev, path)
			}
			seen[n.Name] = path
			nets = append(nets, n)
		}
	}
	return nets, nil
}

// Find returns the net named name.
func Find(nets []ir.NetSpec, name string) (ir.NetSpec, bool) {
	for _, n := range nets {
		if n.Name == name {
			return n, true
		}
	}
	return ir.NetSpec{}, false
}
