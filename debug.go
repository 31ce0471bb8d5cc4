//go:build bcache_debug

package bcache

const debugging = true

func invariant(cond bool, message string) {
	if !cond {
		panic(message)
	}
}
