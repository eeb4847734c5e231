// Package flash defines the flash controller primitives consumed by the
// user-data engine and provides host-side devices implementing them.
//
// A Device erases whole pages and programs single 32-bit words. The erase
// value is represented as logical zero. Programming and erasing require the
// controller to be unlocked; Unlock returns a Guard whose Release must run
// on every exit path:
//
//	g, err := flash.Unlock(dev)
//	if err != nil {
//	    return err
//	}
//	defer g.Release()
//
// MemDevice keeps the page in RAM and supports fault injection and access
// counting for tests. PebbleDevice persists the page in a pebble database,
// so the image outlives the process the way flash outlives a power cycle.
// Both record every erase and program in a journal keyed by KSUID.
package flash
