/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/mdtrans/internal/glossary"
)

var glossaryPromptFormat bool

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Inspect the terminology glossary",
	Long: `Inspect the glossary that steers term translation.

The glossary is a flat source-to-target mapping in JSON ({"模型": "model"}) or
YAML (模型: model). Every term is sent with each document, in file order, so
that terminology stays consistent across the batch.`,
}

var glossaryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List glossary terms",
	RunE: func(cmd *cobra.Command, args []string) error {
		g := glossary.Load(settings.Glossary, logger)

		if glossaryPromptFormat {
			fmt.Println(g.Format())
			return nil
		}

		if g.Len() == 0 {
			fmt.Println("Glossary is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE TERM\tTARGET TERM")
		for _, t := range g.Terms() {
			fmt.Fprintf(w, "%s\t%s\n", t.Source, t.Target)
		}
		return w.Flush()
	},
}

var glossaryCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the glossary file",
	Long: `Parses the glossary strictly and reports the first problem. Unlike
translation runs, which fall back to an empty glossary, a missing or invalid
file is an error here.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := glossary.Parse(settings.Glossary)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s: %d terms\n", green("OK"), settings.Glossary, g.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(glossaryCmd)

	glossaryCmd.PersistentFlags().String("glossary", "translate/glossary.json", "Glossary file (JSON or YAML)")
	glossaryShowCmd.Flags().BoolVar(&glossaryPromptFormat, "prompt", false, "Print the block exactly as sent in the system prompt")

	glossaryCmd.AddCommand(glossaryShowCmd)
	glossaryCmd.AddCommand(glossaryCheckCmd)
}
