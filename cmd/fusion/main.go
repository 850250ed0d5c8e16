// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/yaw_ranger/internal/app"
	"github.com/relabs-tech/yaw_ranger/internal/config"
)

var (
	flagConfig string
	flagDemo   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fusion",
		Short: "Yaw Ranger - gyro heading and rangefinder fusion",
		Long: `Fusion integrates the MPU-6050 yaw rate into a heading, decodes the
TF-Mini rangefinder stream and emits one status line per range packet.

Use --demo to run with synthetic sensors (no hardware needed).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "./fusion_config.txt", "path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&flagDemo, "demo", false, "use mock gyro and rangefinder")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Calibrate the gyro and run the control loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Println("starting yaw-ranger fusion (gyro + rangefinder → status line / MQTT)")
			if err := config.InitGlobal(flagConfig); err != nil {
				return err
			}
			return app.RunFusion(config.Get(), flagDemo)
		},
	}

	calibrateCmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Measure and print the gyro bias, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.InitGlobal(flagConfig); err != nil {
				return err
			}
			return app.RunCalibration(config.Get(), flagDemo, cmd.OutOrStdout())
		},
	}

	rootCmd.AddCommand(runCmd, calibrateCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(1)
	}
}
