package parser

import "strconv"

func literalInt(s string) any {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Out-of-range integers degrade to float64 rather than failing
		// the whole file.
		return literalFloat(s)
	}
	return n
}

func literalFloat(s string) any {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func literalImag(s string) any {
	f, _ := strconv.ParseFloat(s, 64)
	return complex(0, f)
}
