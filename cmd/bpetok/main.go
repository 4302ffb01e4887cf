// Command bpetok is the CLI front-end named as an external collaborator in
// spec.md §1 and specified only for interoperability in §6. Flag layout and
// the SilenceUsage/SilenceErrors cobra setup are grounded on the teacher
// pack's 7blacky7-ollama-reverse/cmd/cmd.go (NewCLI), and the
// mutual-exclusivity-by-counting check on its cmd_show.go.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bpetok/bpetok"
	"github.com/bpetok/internal/pretoken"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		input             string
		output            string
		modelPath         string
		specialTokensPath string
		doTrain           bool
		doEncode          bool
		doDecode          bool
		vocabSize         int
		encoderName       string
		writeVocab        bool
		verbose           bool
	)

	root := &cobra.Command{
		Use:           "bpetok",
		Short:         "Train, encode or decode with a byte-pair-encoding tokenizer",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			count := 0
			for _, v := range []bool{doTrain, doEncode, doDecode} {
				if v {
					count++
				}
			}
			if count != 1 {
				return fmt.Errorf("exactly one of --train, --encode or --decode is required")
			}

			if verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}

			switch {
			case doTrain:
				return runTrain(input, modelPath, specialTokensPath, vocabSize, encoderName, writeVocab, verbose)
			case doEncode:
				return runEncode(input, output, modelPath, encoderName)
			default:
				return runDecode(input, output, modelPath, encoderName)
			}
		},
	}

	root.Flags().StringVar(&input, "input", "", "path to the input file")
	root.Flags().StringVar(&output, "output", "", "path to write the result to")
	root.Flags().StringVar(&modelPath, "model-path", "", "path to the model file (text-format v1)")
	root.Flags().StringVar(&specialTokensPath, "special-tokens-path", "", "path to a special-tokens input file")
	root.Flags().BoolVar(&doTrain, "train", false, "train a new model from --input")
	root.Flags().BoolVar(&doEncode, "encode", false, "encode --input using --model-path")
	root.Flags().BoolVar(&doDecode, "decode", false, "decode --input (a binary token file) using --model-path")
	root.Flags().IntVar(&vocabSize, "vocab-size", 512, "target vocabulary size for --train")
	root.Flags().StringVar(&encoderName, "encoder", "basic", "pre-tokenization pattern: basic, gpt2 or gpt4")
	root.Flags().BoolVar(&writeVocab, "write-vocab", false, "also write a human-readable <model-path>.vocab dump")
	root.Flags().BoolVar(&verbose, "verbose", false, "log one line per learned merge")

	return root
}

// patternFor implements the "basic/gpt2/gpt4" selection named in spec §6.
func patternFor(encoderName string) (string, error) {
	switch encoderName {
	case "basic", "":
		return "", nil
	case "gpt2":
		return pretoken.GPT2Pattern, nil
	case "gpt4":
		return pretoken.GPT4Pattern, nil
	default:
		return "", fmt.Errorf("unknown --encoder %q, want basic, gpt2 or gpt4", encoderName)
	}
}

func runTrain(inputPath, modelPath, specialTokensPath string, vocabSize int, encoderName string, writeVocab, verbose bool) error {
	if inputPath == "" || modelPath == "" {
		return fmt.Errorf("--train requires --input and --model-path")
	}

	pattern, err := patternFor(encoderName)
	if err != nil {
		return err
	}

	corpus, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputPath, err)
	}

	opts := []bpetok.Option{bpetok.WithPattern(pattern), bpetok.WithVerbose(verbose)}
	if specialTokensPath != "" {
		specials, err := bpetok.LoadSpecialTokensFile(specialTokensPath)
		if err != nil {
			return fmt.Errorf("load special tokens %s: %w", specialTokensPath, err)
		}
		for tok, id := range specials {
			opts = append(opts, bpetok.WithSpecialToken(tok, id))
		}
	}

	tok, err := bpetok.New(opts...)
	if err != nil {
		return fmt.Errorf("construct tokenizer: %w", err)
	}
	if err := tok.Train(string(corpus), vocabSize); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	if err := tok.Save(modelPath, writeVocab); err != nil {
		return fmt.Errorf("save %s: %w", modelPath, err)
	}

	slog.Info("training complete", "vocab_size", tok.VocabSize(), "model_path", modelPath)
	return nil
}

func runEncode(inputPath, outputPath, modelPath, encoderName string) error {
	if inputPath == "" || outputPath == "" || modelPath == "" {
		return fmt.Errorf("--encode requires --input, --output and --model-path")
	}

	tok, err := bpetok.New()
	if err != nil {
		return fmt.Errorf("construct tokenizer: %w", err)
	}
	if err := tok.Load(modelPath); err != nil {
		return fmt.Errorf("load %s: %w", modelPath, err)
	}

	text, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputPath, err)
	}

	ids, err := tok.Encode(string(text))
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := tok.SaveTokens(outputPath, ids); err != nil {
		return fmt.Errorf("write %s: %w", outputPath, err)
	}
	return nil
}

func runDecode(inputPath, outputPath, modelPath, encoderName string) error {
	if inputPath == "" || outputPath == "" || modelPath == "" {
		return fmt.Errorf("--decode requires --input, --output and --model-path")
	}

	tok, err := bpetok.New()
	if err != nil {
		return fmt.Errorf("construct tokenizer: %w", err)
	}
	if err := tok.Load(modelPath); err != nil {
		return fmt.Errorf("load %s: %w", modelPath, err)
	}

	ids, err := bpetok.LoadTokens(inputPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputPath, err)
	}

	out := tok.Decode(ids)
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outputPath, err)
	}
	return nil
}
