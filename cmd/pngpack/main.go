// Command pngpack lists the chunks of a PNG file and embeds or extracts
// arbitrary files carried in private deAd chunks.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oy3o/binschema/png"
)

var (
	output  string
	rootCmd *cobra.Command
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "pngpack",
		Short: "Inspect PNG files and smuggle files in and out of them",
		Long: `pngpack reads a PNG file chunk by chunk. It can list the chunks,
pack extra files into the image as private deAd chunks, or extract
files previously packed that way.

Examples:
  pngpack list image.png
  pngpack pack image.png notes.txt -o image-with-notes.png
  pngpack extract image-with-notes.png notes.txt -o ./out`,
	}

	listCmd := &cobra.Command{
		Use:   "list PNG",
		Short: "List the chunks in a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE:  runList,
	}

	packCmd := &cobra.Command{
		Use:   "pack PNG FILE...",
		Short: "Pack file(s) into the PNG as deAd chunks",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runPack,
	}
	packCmd.Flags().StringVarP(&output, "output", "o", "", "file to write the new PNG to (required)")

	extractCmd := &cobra.Command{
		Use:   "extract PNG NAME...",
		Short: "Extract named files from the PNG's deAd chunks",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runExtract,
	}
	extractCmd.Flags().StringVarP(&output, "output", "o", ".", "directory to extract files into")

	rootCmd.AddCommand(listCmd, packCmd, extractCmd)
}

func readPNG(path string) (*png.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return png.Decode(data)
}

func runList(cmd *cobra.Command, args []string) error {
	f, err := readPNG(args[0])
	if err != nil {
		return err
	}

	for _, chunk := range f.Chunks {
		tag, err := png.ChunkType(chunk)
		if err != nil {
			return err
		}
		length, err := chunk.GetUint("length")
		if err != nil {
			return err
		}
		fmt.Printf("Chunk: %s %8d bytes\n", tag, length)

		switch tag {
		case "deAd":
			name, content, err := png.EmbeddedFile(chunk)
			if err != nil {
				return err
			}
			fmt.Printf("    embedded file: %q, %d bytes\n", name, len(content))
		case "IHDR":
			d, err := chunk.GetComposite("data")
			if err != nil {
				return err
			}
			w, err := d.GetUint("width")
			if err != nil {
				return err
			}
			h, err := d.GetUint("height")
			if err != nil {
				return err
			}
			fmt.Printf("    image: %dx%d\n", w, h)
		}
	}
	fmt.Printf("%d extra bytes after IEND\n", len(f.Trailing))
	return nil
}

func runPack(cmd *cobra.Command, args []string) error {
	if output == "" {
		return fmt.Errorf("--output is required")
	}

	f, err := readPNG(args[0])
	if err != nil {
		return err
	}

	for _, path := range args[1:] {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := filepath.Base(path)
		fmt.Printf("Packing %q ....\n", name)

		chunk, err := png.EmbedFile(name, content)
		if err != nil {
			return err
		}
		f.InsertBeforeEnd(chunk)
	}

	data, err := f.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return err
	}
	fmt.Println("Done.")
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	info, err := os.Stat(output)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("--output %q is not a directory", output)
	}

	f, err := readPNG(args[0])
	if err != nil {
		return err
	}

	wanted := make(map[string]bool, len(args)-1)
	for _, name := range args[1:] {
		wanted[name] = true
	}

	for _, chunk := range f.Chunks {
		tag, err := png.ChunkType(chunk)
		if err != nil {
			return err
		}
		if tag != "deAd" {
			continue
		}
		name, content, err := png.EmbeddedFile(chunk)
		if err != nil {
			return err
		}
		if !wanted[name] {
			continue
		}
		fmt.Printf("Extracting %q ....\n", name)
		if err := os.WriteFile(filepath.Join(output, name), content, 0o644); err != nil {
			return err
		}
		delete(wanted, name)
	}

	if len(wanted) > 0 {
		fmt.Println("File(s) not found:")
		for name := range wanted {
			fmt.Printf("    %q\n", name)
		}
	}
	fmt.Println("Done.")
	return nil
}
