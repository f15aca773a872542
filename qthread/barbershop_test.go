package qthread

import "testing"

// TestBarbershop is a sleeping-barber scenario built on Mutex/Cond: a
// single barber thread sleeps until the wait line is non-empty, a
// fixed number of waiting chairs bound how many customers can queue,
// and a customer who finds the line full leaves without a haircut.
func TestBarbershop(t *testing.T) {
	const waitChairs = 2
	const numCustomers = 6

	rt := NewRuntime()
	m := NewMutex(rt)
	lineNotEmpty := NewCond(rt)
	haircutDone := NewCond(rt)

	var line []int
	cut := 0
	turnedAway := 0
	barberDone := false

	rt.Go(func(self *Thread) interface{} {
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
		rt.Go(func(self *Thread) interface{} {
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

	rt.Go(func(self *Thread) interface{} {
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

	if cut+turnedAway != numCustomers {
		t.Fatalf("cut(%d)+turnedAway(%d) != numCustomers(%d)", cut, turnedAway, numCustomers)
	}
	if cut == 0 {
		t.Fatal("expected at least one customer to get a haircut")
	}
}
