package kernel

import "fmt"

func simpleThread(k *Kernel, which int) {
	for num := 0; num < 5; num++ {
		fmt.Printf("*** thread %d looped %d times\n", which, num)
		k.CurrentThread().Yield()
	}
}

// SelfTest ping-pongs between the current thread and a forked one, then
// yields until the forked thread has been reclaimed.
func (k *Kernel) SelfTest() {
	destroyed := k.Stats.ThreadsDestroyed()

	t := k.NewThread("forked thread")
	t.Fork(func(arg any) {
		simpleThread(k, arg.(int))
	}, 1)

	k.CurrentThread().Yield()
	simpleThread(k, 0)

	for k.Stats.ThreadsDestroyed() == destroyed {
		k.CurrentThread().Yield()
	}
}
