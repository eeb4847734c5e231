package flash

// Guard holds the flash controller unlocked until Release is called.
//
//	g, err := flash.Unlock(dev)
//	if err != nil {
//	    return err
//	}
//	defer g.Release()
type Guard struct {
	dev      Device
	released bool
}

// Unlock unlocks dev and returns a guard that locks it again. When Unlock
// fails the controller is locked again before returning.
func Unlock(dev Device) (*Guard, error) {
	if err := dev.Unlock(); err != nil {
		_ = dev.Lock()
		return nil, err
	}
	return &Guard{dev: dev}, nil
}

// Release locks the controller. Calls after the first are no-ops.
func (g *Guard) Release() error {
	if g == nil || g.released {
		return nil
	}
	g.released = true
	return g.dev.Lock()
}
