package redis

// matchGlob reports whether key matches pattern using Redis KEYS/SCAN MATCH rules:
// '*' matches any run of bytes (including '/'), '?' one byte, '[...]' a class with
// optional '^' negation and 'a-z' ranges, and '\' escapes the next byte. Matching
// is byte-wise, as in Redis.
func matchGlob(pattern, key string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 1 && pattern[1] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(key); i++ {
				if matchGlob(pattern[1:], key[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(key) == 0 {
				return false
			}
			key = key[1:]
			pattern = pattern[1:]
		case '[':
			if len(key) == 0 {
				return false
			}
			rest, ok := matchClass(pattern[1:], key[0])
			if !ok {
				return false
			}
			pattern = rest
			key = key[1:]
		case '\\':
			if len(pattern) >= 2 {
				pattern = pattern[1:]
			}
			fallthrough
		default:
			if len(key) == 0 || pattern[0] != key[0] {
				return false
			}
			key = key[1:]
			pattern = pattern[1:]
		}
	}
	return len(key) == 0
}

// matchClass matches c against the class body following '['. It returns the pattern
// after the closing ']' (or the end, if unterminated) and whether c is in the class.
func matchClass(pattern string, c byte) (string, bool) {
	negate := false
	if len(pattern) > 0 && pattern[0] == '^' {
		negate = true
		pattern = pattern[1:]
	}

	matched := false
	for len(pattern) > 0 && pattern[0] != ']' {
		switch {
		case pattern[0] == '\\' && len(pattern) >= 2:
			if pattern[1] == c {
				matched = true
			}
			pattern = pattern[2:]
		case len(pattern) >= 3 && pattern[1] == '-':
			lo, hi := pattern[0], pattern[2]
			if lo > hi {
				lo, hi = hi, lo
			}
			if c >= lo && c <= hi {
				matched = true
			}
			pattern = pattern[3:]
		default:
			if pattern[0] == c {
				matched = true
			}
			pattern = pattern[1:]
		}
	}
	if len(pattern) > 0 {
		// closing ']'
		pattern = pattern[1:]
	}

	return pattern, matched != negate
}
