package main

import (
    "os"

    "payment-pipeline-api/cli"
)

var version = "dev"

func main() {
    if err := cli.Execute(version); err != nil {
        os.Exit(1)
    }
}
