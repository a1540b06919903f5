package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/rcore/internal/compiler"
	"github.com/roach88/rcore/internal/ir"
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first net that fails to compile.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll compiles every net and collects all errors.
	LoadModeCollectAll
)

// LoadResult contains the nets compiled from a directory.
type LoadResult struct {
	Nets      []ir.NetSpec
	CUEValue  cue.Value
	FileCount int
}

// LoadError is a loading failure with its CLI error code.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadNets loads the CUE package in dir and compiles every net under its
// top-level "net" struct. defaultPeriod fills nets without a period.
//
// A nil result means nothing could be compiled (missing directory, CUE
// errors). A non-nil result may come with per-net errors in collect mode.
func LoadNets(dir string, mode LoadMode, defaultPeriod float64) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{CUEValue: value, FileCount: len(cueFiles)}
	nets, compileErrs := compiler.CompileAll(value, compiler.Options{DefaultPeriod: defaultPeriod})
	result.Nets = nets

	var errs []error
	for _, err := range compileErrs {
		errs = append(errs, convertCompileError(err))
		if mode == LoadModeFailFast {
			return result, errs
		}
	}
	if len(result.Nets) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoNets, Message: "no nets found in specs"})
	}
	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError keeps the CUE position of compiler errors.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: err.Error(),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// selectNet picks the net named name, or the only net when name is empty.
func selectNet(nets []ir.NetSpec, name string) (ir.NetSpec, error) {
	if name != "" {
		spec, ok := compiler.Find(nets, name)
		if !ok {
			return ir.NetSpec{}, &LoadError{Code: ErrCodeNetNotFound, Message: fmt.Sprintf("net %q not found", name)}
		}
		return spec, nil
	}
	if len(nets) != 1 {
		return ir.NetSpec{}, &LoadError{Code: ErrCodeNetNotFound, Message: fmt.Sprintf("specs describe %d nets; pick one with --net", len(nets))}
	}
	return nets[0], nil
}

// loadErrorCode returns the CLI code of a loader error.
func loadErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}

// Error code constants, shared by all commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeNoNets      = "E008" // Specs declare no nets
	ErrCodeNetNotFound = "E009" // --net names no net, or the choice is ambiguous
	ErrCodeStore       = "E010" // Database open/read/write failure
	ErrCodeAssemble    = "E011" // Net failed to assemble
	ErrCodeFault       = "E012" // Net faulted while running
	ErrCodeMismatch    = "E013" // Replay diverged from the recording
	ErrCodeQuery       = "E014" // Invalid trace query

	// Description errors reported by the compiler
	ErrCodeNodes    = "E020" // nodes block
	ErrCodeWires    = "E021" // wires block
	ErrCodeChannels = "E022" // channels block
	ErrCodeValue    = "E023" // period, parameter or default value
)

// MapFieldToErrorCode maps a compiler error field, such as
// "nodes.tick.type", to an error code by its leading segment.
func MapFieldToErrorCode(field string) string {
	head, _, _ := strings.Cut(field, ".")
	switch head {
	case "nodes":
		return ErrCodeNodes
	case "wires":
		return ErrCodeWires
	case "channels":
		return ErrCodeChannels
	case "period", "params", "default":
		return ErrCodeValue
	case "cue":
		return ErrCodeBuildFailed
	default:
		return ErrCodeGeneric
	}
}
