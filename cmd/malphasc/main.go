// Command malphasc drives the lexer, parser, encoder, type inference, and
// C backend over a single source file. It is the closed-world successor
// to the teacher's cmd/malphas driver: no LLVM, no linker probing for
// Boehm GC, one backend.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/malphas-lang/malphas-lang/internal/codegen/c"
	"github.com/malphas-lang/malphas-lang/internal/diag"
	"github.com/malphas-lang/malphas-lang/internal/encoder"
	"github.com/malphas-lang/malphas-lang/internal/infer"
	"github.com/malphas-lang/malphas-lang/internal/interner"
	"github.com/malphas-lang/malphas-lang/internal/lexer"
	"github.com/malphas-lang/malphas-lang/internal/mir"
	"github.com/malphas-lang/malphas-lang/internal/parser"
)

var (
	outputDir  string
	emitMIR    bool
	ccOverride string
	noCompile  bool
	formatter  = diag.NewFormatter()
)

var rootCmd = &cobra.Command{
	Use:   "malphasc <source>",
	Short: "Compile a malphas source file to C",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0])
	},
}

func init() {
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "./build", "output directory")
	rootCmd.Flags().BoolVar(&emitMIR, "emit-mir", false, "print the pretty-printed MIR to stderr before emitting C")
	rootCmd.Flags().StringVar(&ccOverride, "cc", "", "C compiler to invoke (default: probe cc, gcc, clang)")
	rootCmd.Flags().BoolVar(&noCompile, "no-compile", false, "emit C only, skip invoking the system C compiler")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	interns := interner.New()
	p := parser.New(lexer.New(string(src)), interns)
	stmts := p.ParseProgram()
	if errs := p.Errors(); len(errs) != 0 {
		for _, e := range errs {
			formatter.Format(e.ToDiagnostic())
		}
		return fmt.Errorf("parsing failed with %d error(s)", len(errs))
	}

	frame, diags := encoder.EncodeProgram(stmts)
	if len(diags) != 0 {
		reportAll(diags)
		return fmt.Errorf("encoding failed with %d error(s)", len(diags))
	}

	if emitMIR {
		fmt.Fprintln(os.Stderr, mir.Print(frame))
	}

	regTypes, diags := infer.Resolve(frame)
	if len(diags) != 0 {
		reportAll(diags)
		return fmt.Errorf("type inference failed with %d error(s)", len(diags))
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	cPath := filepath.Join(outputDir, base+".c")

	out, err := os.Create(cPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", cPath, err)
	}
	defer out.Close()

	if err := c.Emit(out, frame, regTypes); err != nil {
		return fmt.Errorf("emitting C: %w", err)
	}

	if noCompile {
		fmt.Printf("wrote %s\n", cPath)
		return nil
	}

	ccPath, err := findCC()
	if err != nil {
		return err
	}

	binPath := filepath.Join(outputDir, base)
	cmd := exec.Command(ccPath, cPath, "-o", binPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", ccPath, err)
	}

	fmt.Printf("wrote %s\n", binPath)
	return nil
}

func reportAll(diags []diag.Diagnostic) {
	for _, d := range diags {
		formatter.Format(d)
	}
}

// findCC resolves a C compiler, honoring --cc and otherwise probing the
// usual names in PATH order, the same shape as the teacher's llc/opt
// lookup in cmd/malphas (no Homebrew-prefix fallback: a hosted cc/gcc/
// clang on PATH is the common case for this backend).
func findCC() (string, error) {
	if ccOverride != "" {
		if path, err := exec.LookPath(ccOverride); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("--cc %q not found in PATH", ccOverride)
	}
	for _, name := range []string{"cc", "gcc", "clang"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no C compiler found in PATH (tried cc, gcc, clang); use --cc or --no-compile")
}
