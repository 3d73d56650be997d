/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"github.com/spf13/cobra"
	"github.com/tomoncle/recordstore/database"
	"github.com/tomoncle/recordstore/demo"
)

// newRootCommand creates the recordstore command. It takes no flags or
// arguments; the store settings come from the embedded defaults.
func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "recordstore",
		Short:         "Run the student record store demo",
		Long:          "Creates an in-memory student store, enrolls two students and walks through inserts, queries, updates and deletes, printing each result.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := demo.Run(cmd.Context(), database.DefaultConfig(), cmd.OutOrStdout())
			return err
		},
	}
}
