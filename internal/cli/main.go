package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/forPelevin/topicreel/internal/catalog"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "topicreel <topic>",
		Short:        "Generate a narrated short video from a topic",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	f := root.Flags()
	f.String("out", "out", "Output directory")
	f.Int("length", 20, fmt.Sprintf("Video length in seconds, a multiple of --segment-sec (presets: %v)", catalog.Lengths))
	f.String("variant", "", "Prompt variant: educational, advertisement, trailer, ad")
	f.String("style", "", "Visual style")
	f.String("voice", "", "Narration voice (display name or id)")
	f.String("emotion", "", "Narration emotion")
	f.String("text-model", "", "Script model id")
	f.String("speech-model", "", "Narration model id")
	f.String("video-model", "", "Segment video model id")
	f.String("music-model", "", "Music model id")
	f.StringArray("param", nil, "Model parameter override kind.key=value, e.g. video.fps=30 (repeatable)")
	f.Bool("no-voiceover", false, "Skip narration")
	f.Bool("no-music", false, "Skip background music")
	f.String("narration-policy", "pad-end", "Where narration silence goes: pad-end, center")
	f.Float64("narration-volume", 1.2, "Narration gain")
	f.Float64("lead-in", 2.0, "Seconds of silence before narration starts")
	f.String("music-policy", "loop", "How short music is extended: loop, pad-end, center")
	f.Float64("music-volume", 0.3, "Music gain")
	f.Float64("music-fade-in", 0.5, "Music fade-in seconds")
	f.Float64("music-fade-out", 2.5, "Music fade-out seconds")
	f.Int("concurrency", 1, "Segments generated in parallel")
	f.Bool("keep-temp", false, "Keep the run workspace")
	f.String("catalog", "", "YAML catalog overriding models, voices and variants")
	f.Bool("progress", false, "Show download progress bars")
	f.Bool("log-json", false, "Log JSON lines instead of console output")
	f.BoolP("verbose", "v", false, "Debug logging")
	f.Int("fps", 24, "Output frame rate")
	f.Int("width", 0, "Output width (0 keeps the model's)")
	f.Int("height", 0, "Output height (0 keeps the model's)")

	// Hidden tuning flags (internal)
	f.Float64("segment-sec", 5, "Segment duration seconds")
	f.Int("mix-rate", 44100, "Mix sample rate")
	f.Int("mix-channels", 2, "Mix channels")
	_ = f.MarkHidden("segment-sec")
	_ = f.MarkHidden("mix-rate")
	_ = f.MarkHidden("mix-channels")

	root.AddCommand(catalogCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the effective model catalog as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("catalog")
			c, err := catalog.Load(path)
			if err != nil {
				return err
			}
			b, err := c.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	cmd.Flags().String("catalog", "", "YAML catalog overriding the defaults")
	return cmd
}
