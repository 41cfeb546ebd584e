// studyctl — локальные операции конвейера без HTTP: проверка, сжатие и анализ файла.
package main

import "os"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
