// Command desctl is the thin CLI wrapping the synth/nbaic/mpo/fsmio
// library façade. It carries no synthesis logic of its own (spec.md §1:
// "the interactive command prompt, argument parsing, ... are glue");
// everything here is argv handling, file I/O, and formatting.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/desctl/desctl/errs"
	"github.com/desctl/desctl/fsm"
	"github.com/desctl/desctl/fsmio"
	"github.com/desctl/desctl/internal/logging"
	"github.com/desctl/desctl/isp"
	"github.com/desctl/desctl/mpo"
	"github.com/desctl/desctl/nbaic"
	"github.com/desctl/desctl/synth"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin *os.File, stdout, stderr *os.File) int {
	flags := pflag.NewFlagSet("desctl", pflag.ContinueOnError)
	mode := flags.StringP("mode", "m", "", "bscopnbmax | mpo | convert")
	condition := flags.StringP("condition", "c", "min", "min | max (mpo only)")
	fsmFile := flags.StringP("fsm-file", "f", "", "path to the .fsm plant file")
	property := flags.StringP("property", "p", "", "safety | opacity | disambiguation")
	ispFile := flags.StringP("isp-file", "i", "", "path to the ISP yaml file")
	verbose := flags.BoolP("verbose", "v", false, "emit debug-level structured logs")
	writeOut := flags.BoolP("write", "w", false, "write NBAIC/UBTS/EBTS/ICS/A_UxG to ./results")
	help := flags.BoolP("help", "h", false, "display this help menu")

	if err := flags.Parse(args); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if *help {
		fmt.Fprintln(stdout, flags.FlagUsages())
		return 0
	}

	reader := bufio.NewReader(stdin)
	if *mode == "" {
		if err := promptMissingArgs(reader, stdout, mode, condition, fsmFile, property, ispFile, verbose, writeOut); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := logging.New(stderr, level)

	if err := dispatch(*mode, *condition, *fsmFile, *property, *ispFile, *writeOut, log, stdout); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func dispatch(mode, condition, fsmPath, property, ispPath string, writeOut bool, log *slog.Logger, stdout *os.File) error {
	switch strings.ToLower(mode) {
	case "convert":
		return runConvert(fsmPath, stdout)
	case "bscopnbmax":
		return runSynthesize(fsmPath, property, ispPath, writeOut, log, stdout)
	case "mpo":
		return runMPO(fsmPath, property, ispPath, condition, writeOut, log, stdout)
	default:
		return fmt.Errorf("%q is not a valid mode (expected bscopnbmax, mpo, or convert)", mode)
	}
}

func runConvert(fsmPath string, stdout *os.File) error {
	in, err := os.Open(fsmPath)
	if err != nil {
		return err
	}
	defer in.Close()

	if strings.HasSuffix(fsmPath, ".fsm") {
		f, err := fsmio.ReadFSM(in)
		if err != nil {
			return err
		}
		return fsmio.ConvertToText(stdout, f)
	}
	f, err := fsmio.ConvertFromText(in)
	if err != nil {
		return err
	}
	return fsmio.WriteFSM(stdout, f)
}

func loadPlantAndISP(fsmPath, ispPath string) (*fsm.FSM, *isp.Property, error) {
	in, err := os.Open(fsmPath)
	if err != nil {
		return nil, nil, err
	}
	defer in.Close()
	f, err := fsmio.ReadFSM(in)
	if err != nil {
		return nil, nil, err
	}

	var prop *isp.Property
	if ispPath != "" {
		ispF, err := os.Open(ispPath)
		if err != nil {
			return nil, nil, err
		}
		defer ispF.Close()
		prop, err = fsmio.ReadISP(ispF, f)
		if err != nil {
			return nil, nil, err
		}
	}
	return f, prop, nil
}

func runSynthesize(fsmPath, property, ispPath string, writeOut bool, log *slog.Logger, stdout *os.File) error {
	f, prop, err := loadPlantAndISP(fsmPath, ispPath)
	if err != nil {
		return err
	}

	n := synth.BuildNBAIC(f, prop, synth.Config{Mode: nbaic.BSCOPNBMAX, Log: log})
	if n.IsEmpty() {
		fmt.Fprintln(stdout, "No maximally permissive supervisor exists for this FSM")
		return nil
	}

	result, err := synth.Synthesize(n, f, log)
	if err != nil {
		if err == errs.Infeasible {
			fmt.Fprintln(stdout, "No maximally permissive supervisor exists for this FSM")
			return nil
		}
		return err
	}
	fmt.Fprintf(stdout, "num_unfolds=%d\n", result.NumUnfolds)

	if writeOut {
		return writeResults(n, result, stdout)
	}
	return fsmio.WriteAUxG(stdout, result.ICS)
}

func runMPO(fsmPath, property, ispPath, condition string, writeOut bool, log *slog.Logger, stdout *os.File) error {
	f, prop, err := loadPlantAndISP(fsmPath, ispPath)
	if err != nil {
		return err
	}

	n := synth.BuildNBAIC(f, prop, synth.Config{Mode: nbaic.MPO, Log: log})
	if n.IsEmpty() {
		fmt.Fprintf(stdout, "No %s activation policy exists for this FSM\n", condition)
		return nil
	}

	cond := mpo.Min
	if strings.EqualFold(condition, "max") {
		cond = mpo.Max
	}
	reduced := synth.ReduceMPO(n, cond)

	if writeOut {
		out, err := os.Create("./results/MPO.fsm")
		if err != nil {
			return err
		}
		defer out.Close()
		return fsmio.WriteMPOPolicy(out, reduced, cond)
	}
	return fsmio.WriteMPOPolicy(stdout, reduced, cond)
}

func writeResults(n *nbaic.NBAIC, result *synth.Result, stdout *os.File) error {
	if err := os.MkdirAll("./results", 0o755); err != nil {
		return err
	}
	writers := []struct {
		name string
		fn   func(string) error
	}{
		{"NBAIC.fsm", func(path string) error { return writeTo(path, func(w *os.File) error { return fsmio.WriteNBAIC(w, n) }) }},
		{"UBTS.fsm", func(path string) error { return writeTo(path, func(w *os.File) error { return fsmio.WriteUBTS(w, result.UBTS) }) }},
		{"EBTS.fsm", func(path string) error { return writeTo(path, func(w *os.File) error { return fsmio.WriteEBTS(w, result.UBTS) }) }},
		{"ICS.fsm", func(path string) error { return writeTo(path, func(w *os.File) error { return fsmio.WriteICS(w, result.ICS) }) }},
		{"A_UxG.fsm", func(path string) error { return writeTo(path, func(w *os.File) error { return fsmio.WriteAUxG(w, result.ICS) }) }},
		{"A_UxG_reduced.fsm", func(path string) error {
			return writeTo(path, func(w *os.File) error { return fsmio.ReduceAndWrite(w, result.AUxG) })
		}},
	}
	for _, wr := range writers {
		if err := wr.fn("./results/" + wr.name); err != nil {
			return err
		}
	}
	fmt.Fprintln(stdout, "wrote NBAIC, UBTS, EBTS, ICS, A_UxG, and A_UxG_reduced to ./results")
	return nil
}

func writeTo(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}

// promptMissingArgs implements the interactive mode from the original
// source, fixing the `tolower(arg_str[0] != 'y')` precedence bug (spec.md
// §9): a y/n prompt treats anything other than a leading 'y' or 'n'
// (case-insensitive) as invalid input and reprompts, rather than letting
// the precedence bug silently coerce every non-empty answer to "yes".
func promptMissingArgs(r *bufio.Reader, stdout *os.File, mode, condition, fsmFile, property, ispFile *string, verbose, writeOut *bool) error {
	fmt.Fprint(stdout, "Please select a mode for program execution [BSCOPNBMAX | MPO | CONVERT]: ")
	line, err := readLine(r)
	if err != nil {
		return err
	}
	*mode = strings.ToLower(line)

	if strings.ToLower(*mode) == "mpo" {
		fmt.Fprint(stdout, "Would you like to synthesize a minimal or maximal sensor activation policy? [MIN | MAX]: ")
		line, err := readLine(r)
		if err != nil {
			return err
		}
		*condition = strings.ToLower(line)
	}

	fmt.Fprint(stdout, "Please enter the FSM file you would like to process: ")
	line, err = readLine(r)
	if err != nil {
		return err
	}
	*fsmFile = line

	if strings.ToLower(*mode) != "convert" {
		useISP, err := promptYesNo(r, stdout, "Would you like to use an information state property? [y | n]: ")
		if err != nil {
			return err
		}
		if useISP {
			fmt.Fprint(stdout, "Please enter which property you would like to use [SAFETY | OPACITY | DISAMBIGUATION]: ")
			line, err := readLine(r)
			if err != nil {
				return err
			}
			*property = strings.ToLower(line)

			fmt.Fprint(stdout, "Please enter the information state property file you would like to use: ")
			line, err = readLine(r)
			if err != nil {
				return err
			}
			*ispFile = line
		}
	}

	v, err := promptYesNo(r, stdout, "Would you like to turn on console output? This is not recommended for large inputs [y | n]: ")
	if err != nil {
		return err
	}
	*verbose = v

	w, err := promptYesNo(r, stdout, "Would you like to turn on file output? [y | n]: ")
	if err != nil {
		return err
	}
	*writeOut = w
	return nil
}

func promptYesNo(r *bufio.Reader, stdout *os.File, prompt string) (bool, error) {
	for {
		fmt.Fprint(stdout, prompt)
		line, err := readLine(r)
		if err != nil {
			return false, err
		}
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		switch line[0] {
		case 'y':
			return true, nil
		case 'n':
			return false, nil
		default:
			fmt.Fprintln(stdout, "please answer y or n")
		}
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
