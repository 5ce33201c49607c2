package report

import (
	"fmt"
	"os"
)

func Report(name string) string {
	fmt.Println("hello", name)   // want `use the logger instead of fmt.Println`
	fmt.Printf("hello %s", name) // want `use the logger instead of fmt.Printf`
	fmt.Fprintln(os.Stderr, name)
	return fmt.Sprintf("hello %s", name)
}
