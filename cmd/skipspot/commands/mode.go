package commands

import (
	"github.com/spf13/cobra"
)

var (
	gesturePreview    bool
	gestureMotionGate bool
	voiceEngine       string
	voiceLocale       string
)

var gestureCmd = &cobra.Command{
	Use:   "gesture",
	Short: "Control playback with hand gestures",
	Long: `Read the camera, classify the tracked hand on every frame and dispatch a
playback action once a pose holds for most of the smoothing window.

Counting scheme (default): thumb play, index pause, ring volume up,
pinky volume down. Pointing scheme: fist pause, peace sign play, index
right or left skip or previous, index up or down volume.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("preview") {
			cfg.Camera.Preview = gesturePreview
		}
		if cmd.Flags().Changed("motion-gate") {
			cfg.Camera.MotionGate = gestureMotionGate
		}

		rt, err := newRuntime(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		out := cmd.OutOrStdout()
		out.Write([]byte(gestureBanner(cfg)))
		return watch(cmd.Context(), rt.hub, rt.gestureRunner(), out)
	},
}

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Control playback with spoken commands",
	Long: `Listen for one utterance at a time, transcribe it and dispatch the first
command whose trigger phrase it contains. Saying an exit phrase ends the mode.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if voiceEngine != "" {
			cfg.Voice.Engine = voiceEngine
		}
		if voiceLocale != "" {
			cfg.Voice.Locale = voiceLocale
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		rt, err := newRuntime(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		out := cmd.OutOrStdout()
		out.Write([]byte(voiceBanner(cfg)))
		return watch(cmd.Context(), rt.hub, rt.voiceRunner(), out)
	},
}

func init() {
	gestureCmd.Flags().BoolVar(&gesturePreview, "preview", false, "show the camera preview window")
	gestureCmd.Flags().BoolVar(&gestureMotionGate, "motion-gate", false, "skip detection on still frames")
	voiceCmd.Flags().StringVar(&voiceEngine, "engine", "", "speech engine: google or openai")
	voiceCmd.Flags().StringVar(&voiceLocale, "locale", "", "transcription locale, e.g. pt-BR")

	rootCmd.AddCommand(gestureCmd)
	rootCmd.AddCommand(voiceCmd)
}
