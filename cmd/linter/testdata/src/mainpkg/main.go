package main

import (
	"log"
	"os"
)

// В main.main завершение процесса разрешено.
func main() {
	if len(os.Args) > 1 {
		log.Fatal("bad arguments")
	}
	os.Exit(0)
}

// Вне main.main - детектит даже в пакете main.
func helper() {
	os.Exit(2) // want "call to log.Fatal or os.Exit outside main.main"
}
