package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ayusman/skipspot/internal/app"
	"github.com/ayusman/skipspot/internal/config"
	"github.com/ayusman/skipspot/internal/gesture"
	"github.com/ayusman/skipspot/internal/store"
)

var (
	captureName   string
	captureLabel  string
	captureFrames int
)

var referenceCmd = &cobra.Command{
	Use:     "reference",
	Aliases: []string{"ref"},
	Short:   "Capture and inspect reference poses",
	Long: `Reference captures are raw landmark frames of one labelled pose, stored in
the local database. Inspecting them replays every frame through the configured
extractor and classifier and reports how often the expected label came out.
Nothing is learned from them.`,
}

var referenceCaptureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record frames of a labelled pose from the camera",
	Example: `  skipspot reference capture --name thumb-left --label play --frames 30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		label, err := gesture.ParseLabel(captureLabel)
		if err != nil {
			return err
		}
		if captureName == "" {
			captureName = string(label)
		}

		st, err := store.New(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		src, closeSource, err := openHandSource(cfg)
		if err != nil {
			return err
		}
		defer closeSource()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Hold the %s pose in front of the camera...\n", styles.Key.Render(string(label)))
		ref, err := app.CaptureReference(cmd.Context(), src, st.References(), captureName, label, captureFrames)
		if errors.Is(err, app.ErrCaptureIncomplete) && ref != nil {
			fmt.Fprintln(out, styles.Warn.Render(err.Error()))
			err = nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved %s (%s) with %d samples\n", ref.Name, ref.ID, ref.Samples)
		return nil
	},
}

var referenceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reference captures",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		st, err := store.New(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		refs, err := st.References().List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(refs) == 0 {
			fmt.Fprintln(out, "No reference captures.")
			return nil
		}
		fmt.Fprintln(out, referenceTable(refs))
		return nil
	},
}

var referenceInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Replay reference captures through the classifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		return inspectWith(nil, cfg, cmd.OutOrStdout())
	},
}

var referenceDeleteCmd = &cobra.Command{
	Use:   "delete <id|name>...",
	Short: "Delete reference captures",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		st, err := store.New(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		refs := st.References()
		for _, arg := range args {
			ref, err := refs.GetByID(arg)
			if errors.Is(err, store.ErrNotFound) {
				ref, err = refs.GetByName(arg)
			}
			if err != nil {
				return fmt.Errorf("reference %q: %w", arg, err)
			}
			if err := refs.Delete(ref.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s)\n", ref.Name, ref.ID)
		}
		return nil
	},
}

// printInspection writes the inspection table for every capture in st.
func printInspection(st *store.Store, cfg *config.Config, out io.Writer) error {
	trainer, err := newTrainer(cfg)
	if err != nil {
		return err
	}
	reports, err := app.InspectReferences(st.References(), trainer)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Fprintln(out, "No reference captures with samples.")
		return nil
	}

	refs, err := st.References().List()
	if err != nil {
		return err
	}
	names := make(map[string]string, len(refs))
	for _, r := range refs {
		names[r.ID] = r.Name
	}

	fmt.Fprintf(out, "%s %s\n", styles.Title.Render("Reference inspection"),
		styles.Help.Render(cfg.Features.Method+" features, "+cfg.Gesture.Scheme+" scheme"))
	fmt.Fprintln(out, reportTable(reports, names))
	return nil
}

func init() {
	referenceCaptureCmd.Flags().StringVar(&captureName, "name", "", "capture name (default: the label)")
	referenceCaptureCmd.Flags().StringVar(&captureLabel, "label", "", "expected label: play, pause, skip, previous, volume_up, volume_down or none")
	referenceCaptureCmd.Flags().IntVarP(&captureFrames, "frames", "n", 30, "number of hand frames to record")
	referenceCaptureCmd.MarkFlagRequired("label")

	referenceCmd.AddCommand(referenceCaptureCmd)
	referenceCmd.AddCommand(referenceListCmd)
	referenceCmd.AddCommand(referenceInspectCmd)
	referenceCmd.AddCommand(referenceDeleteCmd)
	rootCmd.AddCommand(referenceCmd)
}
