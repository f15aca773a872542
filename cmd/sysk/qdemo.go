package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdesnoyers/sysk/internal/metrics"
	"github.com/pdesnoyers/sysk/qthread"
)

func newQdemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qdemo",
		Short: "run qthread demonstrations",
	}
	cmd.AddCommand(newQdemoBarbershopCmd())
	return cmd
}

func newQdemoBarbershopCmd() *cobra.Command {
	var waitChairs int
	var numCustomers int

	cmd := &cobra.Command{
		Use:   "barbershop",
		Short: "run the sleeping-barber scenario over the qthread runtime",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd.Flags())
			log := newLogger(cfg)
			reg := metrics.New("sysk")

			rt := qthread.NewRuntime(qthread.WithMetrics(reg.Runtime))
			m := qthread.NewMutex(rt)
			lineNotEmpty := qthread.NewCond(rt)
			haircutDone := qthread.NewCond(rt)

			var line []int
			cut, turnedAway := 0, 0
			barberDone := false

			rt.Go(func(self *qthread.Thread) interface{} {
				m.Lock(self)
				for !barberDone {
					for len(line) == 0 && !barberDone {
						lineNotEmpty.Wait(self, m)
					}
					if barberDone && len(line) == 0 {
						break
					}
					line = line[1:]
					cut++
					haircutDone.Broadcast()
				}
				m.Unlock()
				return nil
			})

			for i := 0; i < numCustomers; i++ {
				i := i
				rt.Go(func(self *qthread.Thread) interface{} {
					m.Lock(self)
					if len(line) >= waitChairs {
						turnedAway++
						m.Unlock()
						return nil
					}
					line = append(line, i)
					lineNotEmpty.Signal()
					before := cut
					for cut == before {
						haircutDone.Wait(self, m)
					}
					m.Unlock()
					return nil
				})
			}

			rt.Go(func(self *qthread.Thread) interface{} {
				for cut+turnedAway < numCustomers {
					rt.Yield(self)
				}
				m.Lock(self)
				barberDone = true
				lineNotEmpty.Broadcast()
				m.Unlock()
				return nil
			})

			rt.Run()

			log.Printf("barbershop: %d haircuts, %d turned away", cut, turnedAway)
			fmt.Fprintf(cmd.OutOrStdout(), "haircuts=%d turned_away=%d\n", cut, turnedAway)
		},
	}
	cmd.Flags().IntVar(&waitChairs, "chairs", 4, "number of waiting chairs")
	cmd.Flags().IntVar(&numCustomers, "customers", 10, "number of customers")
	return cmd
}
