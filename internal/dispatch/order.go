package dispatch

import "math/rand"

// Order returns the recipients as given, or a fresh uniform permutation
// when randomize is set. It never duplicates or drops a recipient, and it
// is re-invoked for every request so repeated sends get distinct orders.
func Order(recipients []string, randomize bool) []string {
	out := make([]string, len(recipients))
	copy(out, recipients)
	if randomize {
		rand.Shuffle(len(out), func(i, j int) {
			out[i], out[j] = out[j], out[i]
		})
	}
	return out
}
