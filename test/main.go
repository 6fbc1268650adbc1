// Command test reads a Daly BMS in a loop and prints every decoded pack.
// It is a hardware smoke test and talks to the BMS only, never to an inverter.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	bridge "github.com/jonamat/go-bms-bridge"
)

const SAMPLE_INTERVAL = 5 * time.Second

var BMS_PORT = "/dev/ttyUSB0"

func main() {
	if len(os.Args) > 1 {
		BMS_PORT = os.Args[1]
	}
	fmt.Println("Starting...")

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	port, err := bridge.NewSerialPort(bridge.SerialConfig{
		Config: bridge.PortConfig{Device: BMS_PORT, BaudRate: 9600, FrameLength: bridge.DalyFrameLength},
		Pacing: 100 * time.Millisecond,
	}, bridge.TarmDriver, logger)
	if err != nil {
		fmt.Println("Invalid port configuration: ", err)
		os.Exit(1)
	}

	bmsClient := bridge.NewDalyBMS(port, bridge.DalyOptions{}, logger)
	defer bmsClient.Disconnect()

	for {
		if err := bmsClient.Connect(); err != nil {
			fmt.Printf("Error connecting to BMS: %v\n", err)
			time.Sleep(1 * time.Second)
			continue
		}

		var pack bridge.Pack
		if err := bmsClient.ReadPack(context.Background(), &pack); err != nil {
			fmt.Println("Error getting data: ", err)
		} else {
			pack.DeriveCellStats()
			printPack(&pack)
		}

		// delay before next sample
		time.Sleep(SAMPLE_INTERVAL)
	}
}

func printPack(p *bridge.Pack) {
	fmt.Println("Total voltage: ", float64(p.PackVoltage)/10)
	fmt.Println("Current: ", float64(p.PackCurrent)/10)
	fmt.Println("SOC percent: ", float64(p.PackSOC)/10)
	fmt.Println("Mode: ", p.ChargeDischargeStatus)
	fmt.Println("Charging mosfet: ", p.ChargeMOSState)
	fmt.Println("Discharging mosfet: ", p.DischargeMOSState)
	fmt.Println("Remaining capacity mAh: ", p.RemainingCapacitymAh)
	fmt.Println("Cycle count: ", p.BMSCycles)
	fmt.Println("Number of cells: ", p.NumberOfCells)
	fmt.Println("Cell voltages: ", p.Cells())
	fmt.Println("Highest cell: ", p.MaxCellVNum, p.MaxCellmV)
	fmt.Println("Lowest cell: ", p.MinCellVNum, p.MinCellmV)
	fmt.Println("Balancing: ", p.CellBalanceActive)
	fmt.Println("Temperatures: ", p.Temperatures())
	fmt.Println("Digital IO: ", p.DIO)
	fmt.Println("Errors: ", p.Alarms.Active())
}

/*
	Output example:
	Starting...
	Total voltage:  13
	Current:  0
	SOC percent:  64.1
	Mode:  stationary
	Charging mosfet:  true
	Discharging mosfet:  true
	Remaining capacity mAh:  147430
	Cycle count:  273
	Number of cells:  4
	Cell voltages:  [3255 3279 3279 3259]
	Highest cell:  2 3279
	Lowest cell:  1 3255
	Balancing:  false
	Temperatures:  [130]
	Digital IO:  [false true false false false false false false]
	Errors:  []
*/
