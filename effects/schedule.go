package effects

// blurPass is one one-directional blur iteration between the ping-pong buffers.
type blurPass struct {
	src, dst   int
	horizontal bool
}

// blurSchedule lists the passes for a pass count. The extract always writes
// buffer 0, so pass i reads i%2 and writes (i+1)%2.
func blurSchedule(passes int) []blurPass {
	if passes <= 0 {
		return nil
	}
	schedule := make([]blurPass, passes)
	for i := range schedule {
		schedule[i] = blurPass{
			src:        i % 2,
			dst:        (i + 1) % 2,
			horizontal: i%2 == 0,
		}
	}
	return schedule
}

// finalPingPong is the buffer holding the result after the given pass count.
func finalPingPong(passes int) int {
	if passes <= 0 {
		return 0
	}
	return passes % 2
}
