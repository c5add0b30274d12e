//
//  Copyright 2023 PayPal Inc.
//
//  Licensed to the Apache Software Foundation (ASF) under one or more
//  contributor license agreements.  See the NOTICE file distributed with
//  this work for additional information regarding copyright ownership.
//  The ASF licenses this file to You under the Apache License, Version 2.0
//  (the "License"); you may not use this file except in compliance with
//  the License.  You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"jdwpcheck/pkg/debugee"
	"jdwpcheck/pkg/logging/glog"
)

func newIDSizesCommand(common *commonOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "idsizes",
		Short: "Attaches to the target and prints its identifier widths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := setup(cmd, common)
			if err != nil {
				return err
			}
			defer cleanup()

			d, err := debugee.Attach(cmd.Context(), &cfg.Target, &cfg.Transport, cfg.Debugee)
			if err != nil {
				renderAttachFailure(cmd.OutOrStdout(), cfg.Target.String(), err)
				return fmt.Errorf("%w: %s", errTestFailed, err)
			}
			defer d.Close()

			if err = d.WaitForVMInit(); err != nil {
				return fmt.Errorf("%w: %s", errTestFailed, err)
			}
			sizes, err := d.QueryForIDSizes()
			if err != nil && !debugee.IsTrailingData(err) {
				return fmt.Errorf("%w: %s", errTestFailed, err)
			}
			if err != nil {
				pterm.Warning.WithWriter(cmd.OutOrStdout()).Println(err.Error())
			}
			pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(pterm.TableData{
				{"ID", "Width"},
				{"fieldID", fmt.Sprint(sizes.FieldID)},
				{"methodID", fmt.Sprint(sizes.MethodID)},
				{"objectID", fmt.Sprint(sizes.ObjectID)},
				{"referenceTypeID", fmt.Sprint(sizes.ReferenceTypeID)},
				{"frameID", fmt.Sprint(sizes.FrameID)},
			}).Render()

			if err = d.Dispose(); err != nil {
				glog.Warningf("dispose: %s", err)
			}
			return nil
		},
	}
}
