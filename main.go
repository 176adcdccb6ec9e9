package main

import (
	"fmt"
	"log"
	"os"

	"github.com/FranciscoFerrutti/cripto-steganography/bitmap"
	"github.com/FranciscoFerrutti/cripto-steganography/crypto"
	"github.com/FranciscoFerrutti/cripto-steganography/models"
	"github.com/FranciscoFerrutti/cripto-steganography/payload"
	"github.com/FranciscoFerrutti/cripto-steganography/quality"
	"github.com/FranciscoFerrutti/cripto-steganography/stego"
	"github.com/akamensky/argparse"
	"github.com/dustin/go-humanize"
)

type cipherArgs struct {
	algorithm *string
	mode      *string
	password  *string
}

type EmbedArgs struct {
	input   *string
	carrier *string
	output  *string
	method  *string
	cipher  cipherArgs
}

type ExtractArgs struct {
	carrier *string
	output  *string
	method  *string
	cipher  cipherArgs
}

type CapacityArgs struct {
	carrier *string
}

var methodNames = []string{string(models.MethodLSB1), string(models.MethodLSB4), string(models.MethodLSBI)}

func addCipherArgs(cmd *argparse.Command) cipherArgs {
	return cipherArgs{
		algorithm: cmd.String("a", "algorithm", &argparse.Options{Help: "aes128 | aes192 | aes256 | 3des (default aes128 with a password)"}),
		mode:      cmd.String("m", "mode", &argparse.Options{Help: "ecb | cfb | ofb | cbc (default cbc with a password)"}),
		password:  cmd.String("k", "pass", &argparse.Options{Help: "Encryption password"}),
	}
}

func initEmbedCommand(parser *argparse.Parser) (*argparse.Command, *EmbedArgs) {
	cmd := parser.NewCommand("embed", "Hide a file inside a 24-bit BMP")
	return cmd, &EmbedArgs{
		input:   cmd.String("i", "in", &argparse.Options{Required: true, Help: "File to hide"}),
		carrier: cmd.String("p", "carrier", &argparse.Options{Required: true, Help: "Carrier BMP"}),
		output:  cmd.String("o", "out", &argparse.Options{Required: true, Help: "Output BMP"}),
		method:  cmd.Selector("s", "steg", methodNames, &argparse.Options{Required: true, Help: "Steganography method"}),
		cipher:  addCipherArgs(cmd),
	}
}

func initExtractCommand(parser *argparse.Parser) (*argparse.Command, *ExtractArgs) {
	cmd := parser.NewCommand("extract", "Recover a hidden file from a BMP")
	return cmd, &ExtractArgs{
		carrier: cmd.String("p", "carrier", &argparse.Options{Required: true, Help: "Stego BMP"}),
		output:  cmd.String("o", "out", &argparse.Options{Required: true, Help: "Output path, the recovered extension is appended"}),
		method:  cmd.Selector("s", "steg", methodNames, &argparse.Options{Required: true, Help: "Steganography method"}),
		cipher:  addCipherArgs(cmd),
	}
}

func initCapacityCommand(parser *argparse.Parser) (*argparse.Command, *CapacityArgs) {
	cmd := parser.NewCommand("capacity", "Show how many bytes each method can hide in a BMP")
	return cmd, &CapacityArgs{
		carrier: cmd.String("p", "carrier", &argparse.Options{Required: true, Help: "Carrier BMP"}),
	}
}

func main() {
	parser := argparse.NewParser("stegobmp", "Hide files in 24-bit BMP images")
	embedCommand, embedArgs := initEmbedCommand(parser)
	extractCommand, extractArgs := initExtractCommand(parser)
	capacityCommand, capacityArgs := initCapacityCommand(parser)
	serveCommand := parser.NewCommand("serve", "Run the HTTP API")

	if err := parser.Parse(os.Args); err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		os.Exit(1)
	}

	var err error
	switch {
	case embedCommand.Happened():
		err = embed(embedArgs)
	case extractCommand.Happened():
		err = extract(extractArgs)
	case capacityCommand.Happened():
		err = capacity(capacityArgs)
	case serveCommand.Happened():
		err = serve()
	}

	if err != nil {
		log.Printf("stegobmp: %v", err)
		os.Exit(1)
	}
}

func buildConfig(method string, args cipherArgs) (*models.StegoConfig, error) {
	m, err := models.ParseMethod(method)
	if err != nil {
		return nil, err
	}
	opts, err := crypto.ResolveOptions(*args.password, *args.algorithm, *args.mode)
	if err != nil {
		return nil, err
	}
	return &models.StegoConfig{Method: m, Cipher: opts}, nil
}

func embed(args *EmbedArgs) error {
	config, err := buildConfig(*args.method, args.cipher)
	if err != nil {
		return err
	}

	steganographer, err := stego.NewSteganographer(config)
	if err != nil {
		return err
	}

	grid, err := bitmap.Load(*args.carrier)
	if err != nil {
		return err
	}

	result, err := steganographer.EmbedFile(grid, *args.input)
	if err != nil {
		return err
	}

	if err := bitmap.Save(*args.output, result.Grid); err != nil {
		return err
	}

	fmt.Printf("Embedded %s into %s with %s (%s of %s used)\n",
		*args.input, *args.output, result.Method,
		humanize.Bytes(uint64(result.FramedBytes)), humanize.Bytes(uint64(result.CapacityBytes)))
	fmt.Printf("PSNR: %s dB, %d components changed\n",
		quality.FormatPSNR(result.Quality.PSNR), result.Quality.ChangedComponents)
	if !result.Quality.Acceptable(quality.MinAcceptablePSNR) {
		log.Printf("warning: PSNR below %.0f dB, the changes may be visible", quality.MinAcceptablePSNR)
	}
	return nil
}

func extract(args *ExtractArgs) error {
	config, err := buildConfig(*args.method, args.cipher)
	if err != nil {
		return err
	}

	steganographer, err := stego.NewSteganographer(config)
	if err != nil {
		return err
	}

	grid, err := bitmap.Load(*args.carrier)
	if err != nil {
		return err
	}

	data, ext, err := steganographer.Extract(grid)
	if err != nil {
		return err
	}

	path := *args.output + ext
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: could not write %s: %v", models.ErrIO, path, err)
	}

	fmt.Printf("Extracted %s to %s\n", humanize.Bytes(uint64(len(data))), path)
	return nil
}

func capacity(args *CapacityArgs) error {
	grid, err := bitmap.Load(*args.carrier)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %dx%d\n", *args.carrier, grid.Width, grid.Height)
	for _, method := range models.Methods {
		s, err := stego.NewSteganographer(&models.StegoConfig{Method: method})
		if err != nil {
			return err
		}
		fmt.Printf("  %s  %s framed, largest .txt secret %s\n", method,
			humanize.Bytes(uint64(s.CalculateCapacity(grid))),
			humanize.Bytes(uint64(s.MaxSecretLength(grid, payload.DefaultExtension))))
	}
	return nil
}
