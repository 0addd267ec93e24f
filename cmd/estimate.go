package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/foodlog/internal/config"
	"github.com/user/foodlog/internal/errors"
	"github.com/user/foodlog/internal/handlers"
	"github.com/user/foodlog/internal/nutrition"
	"github.com/user/foodlog/internal/worker_pool"
)

var (
	estimateText      string
	estimateImage     string
	estimateResponses string
	estimateBatch     string
	estimateWorkers   int
	estimateItemized  bool
)

// BatchResult is one line of a batch estimate
type BatchResult struct {
	Text   string      `json:"text"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// estimateCmd represents the estimate command
var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate nutrition once and print the result as JSON",
	Long: `Run the nutrition pipeline once without starting the server.

Exactly one input is required:
  --text "a turkey sandwich with cheese"
  --image lunch.jpg
  --responses answers.json   (use - to read from stdin)
  --batch meals.txt          (one meal description per line, use - for stdin)

Batch lines are estimated concurrently, at most --workers at a time, and
printed as a JSON array in input order.`,
	RunE: runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().StringVarP(&estimateText, "text", "t", "", "Meal description")
	estimateCmd.Flags().StringVarP(&estimateImage, "image", "i", "", "Path to a meal photo")
	estimateCmd.Flags().StringVarP(&estimateResponses, "responses", "r", "", "Path to questionnaire answers (JSON)")
	estimateCmd.Flags().StringVarP(&estimateBatch, "batch", "b", "", "Path to meal descriptions, one per line")
	estimateCmd.Flags().IntVarP(&estimateWorkers, "workers", "w", 4, "Concurrent estimates in batch mode")
	estimateCmd.Flags().BoolVar(&estimateItemized, "itemized", false, "Return one record per food item")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	cliOverrides := baseOverrides()
	if cmd.Flags().Changed("itemized") {
		cliOverrides["nutrition.itemized"] = estimateItemized
	}

	cfg, err := config.Load(configFile, cliOverrides)
	if err != nil {
		return err
	}

	logger, err := InitLogger(cfg.Logging, cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if estimateBatch != "" {
		if estimateText != "" || estimateImage != "" || estimateResponses != "" {
			return errors.NewInvalidInputError(errors.StageHandler, "--batch cannot be combined with another input")
		}
		estimator, err := BuildEstimator(cfg, logger)
		if err != nil {
			return err
		}
		return runBatch(cmd.Context(), cmd.OutOrStdout(), cmd.InOrStdin(), estimator)
	}

	input, mode, err := estimateInput(cmd.InOrStdin())
	if err != nil {
		return err
	}

	if mode == nutrition.ModeImage {
		uploader, err := BuildUploader(cmd.Context(), cfg.Storage, logger)
		if err != nil {
			return err
		}
		if uploader != nil {
			url, err := uploader.Upload(cmd.Context(), input.ImageData, input.ImageMIME, filepath.Base(estimateImage))
			if err != nil {
				return err
			}
			input.ImageURL = url
		}
	}

	estimator, err := BuildEstimator(cfg, logger)
	if err != nil {
		return err
	}

	estimate, err := estimator.Estimate(cmd.Context(), input, mode)
	if err != nil {
		return err
	}

	return writeEstimate(cmd.OutOrStdout(), estimate)
}

// estimateInput reads the single input selected by the flags
func estimateInput(stdin io.Reader) (nutrition.MealDescription, nutrition.Mode, error) {
	selected := 0
	for _, v := range []string{estimateText, estimateImage, estimateResponses} {
		if v != "" {
			selected++
		}
	}
	if selected != 1 {
		return nutrition.MealDescription{}, "", errors.NewInvalidInputError(errors.StageHandler,
			"exactly one of --text, --image, --responses or --batch is required")
	}

	switch {
	case estimateText != "":
		return nutrition.MealDescription{Text: estimateText}, nutrition.ModeText, nil

	case estimateImage != "":
		data, err := os.ReadFile(estimateImage)
		if err != nil {
			return nutrition.MealDescription{}, "", errors.NewInvalidInputError(errors.StageHandler,
				fmt.Sprintf("cannot read image: %v", err))
		}
		mime := nutrition.ImageMIME(data, "")
		if mime == "" {
			return nutrition.MealDescription{}, "", errors.NewInvalidInputError(errors.StageHandler, nutrition.MsgPhotoNotImage)
		}
		return nutrition.MealDescription{ImageData: data, ImageMIME: mime}, nutrition.ModeImage, nil

	default:
		responses, err := readResponses(estimateResponses, stdin)
		if err != nil {
			return nutrition.MealDescription{}, "", err
		}
		return nutrition.MealDescription{Responses: responses}, nutrition.ModeProfile, nil
	}
}

// readResponses decodes questionnaire answers from path, or stdin when path is "-"
func readResponses(path string, stdin io.Reader) (interface{}, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.NewInvalidInputError(errors.StageHandler, fmt.Sprintf("cannot read responses: %v", err))
		}
		defer f.Close()
		r = f
	}

	var responses interface{}
	if err := json.NewDecoder(r).Decode(&responses); err != nil {
		return nil, errors.NewInvalidInputError(errors.StageHandler, fmt.Sprintf("responses must be JSON: %v", err))
	}
	if responses == nil {
		return nil, errors.NewInvalidInputError(errors.StageHandler, nutrition.MsgResponsesRequired)
	}
	return responses, nil
}

// runBatch estimates every non-blank line of the batch input. It returns the
// first failure, if any, after printing all results.
func runBatch(ctx context.Context, w io.Writer, stdin io.Reader, estimator handlers.Estimator) error {
	lines, err := readBatch(estimateBatch, stdin)
	if err != nil {
		return err
	}

	tasks := make([]worker_pool.Task[*nutrition.Estimate], len(lines))
	for i, line := range lines {
		text := line
		tasks[i] = func(ctx context.Context) (*nutrition.Estimate, error) {
			return estimator.Estimate(ctx, nutrition.MealDescription{Text: text}, nutrition.ModeText)
		}
	}

	results := worker_pool.Run(ctx, worker_pool.NewWorkerPool(estimateWorkers), tasks)

	out := make([]BatchResult, len(results))
	var firstErr error
	for i, r := range results {
		out[i] = BatchResult{Text: lines[i]}
		if r.Error != nil {
			out[i].Error = r.Error.Error()
			if firstErr == nil {
				firstErr = r.Error
			}
			continue
		}
		out[i].Result = r.Value.Body()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	return firstErr
}

// readBatch returns the non-blank lines of path, or of stdin when path is "-"
func readBatch(path string, stdin io.Reader) ([]string, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.NewInvalidInputError(errors.StageHandler, fmt.Sprintf("cannot read batch: %v", err))
		}
		defer f.Close()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewInvalidInputError(errors.StageHandler, fmt.Sprintf("cannot read batch: %v", err))
	}
	if len(lines) == 0 {
		return nil, errors.NewInvalidInputError(errors.StageHandler, nutrition.MsgTextRequired)
	}
	return lines, nil
}

func writeEstimate(w io.Writer, estimate *nutrition.Estimate) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(estimate.Body())
}
