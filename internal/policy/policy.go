// Package policy decides whether the bot answers an eligible message.
package policy

// ShouldRespond reports whether the bot should reply.
//
// Direct replies to the bot's own messages are always answered. Everything
// else is an independent Bernoulli draw: randomValue (uniform in [0,1)) is
// compared against responseFrequency clamped to [0,1]. No state is kept and
// past decisions are never consulted.
func ShouldRespond(randomValue, responseFrequency float64, repliedToBot bool) bool {
	if repliedToBot {
		return true
	}

	freq := responseFrequency
	if freq < 0 {
		freq = 0
	}
	if freq > 1 {
		freq = 1
	}
	return randomValue <= freq
}
