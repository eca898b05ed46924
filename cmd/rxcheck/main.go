// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Command rxcheck parses a remote expression from a JSON or YAML file,
// evaluates it, and prints the resulting value. It exists to smoke-test
// the expr/eval/serialize packages end to end against a file on disk,
// the way the teacher's buildreflow and ec2instances commands are
// small, single-purpose operational tools rather than user-facing
// products.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/grailbio/remoteflow/eval"
	"github.com/grailbio/remoteflow/remotecontext"
	"github.com/grailbio/remoteflow/serialize"
	"github.com/grailbio/remoteflow/values"
)

var (
	timeout       = flag.Duration("timeout", 30*time.Second, "evaluation timeout")
	maxIterations = flag.Int("max-iterations", 0, "bound on Iterate steps; 0 means unbounded")
	yamlOutput    = flag.Bool("yaml", false, "after the value, also print the expression re-encoded as YAML")
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: rxcheck path

rxcheck reads a serialized expression from path (format inferred from
its extension: .json or .yaml/.yml), evaluates it against an empty
RemoteContext, and prints its digest and resulting value.
`)
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("rxcheck: ")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
	}
	path := flag.Arg(0)

	b, err := ioutil.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}

	decode := serialize.UnmarshalJSON
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		decode = serialize.UnmarshalYAML
	}

	e, err := decode(b)
	if err != nil {
		log.Fatalf("decode %s: %v", path, err)
	}
	fmt.Printf("digest: %s\n", e.Digest())

	opts := eval.Options{MaxIterations: *maxIterations}
	ev := eval.New(opts)
	rc := remotecontext.New()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sv, err := ev.EvalDynamic(ctx, rc, e, nil)
	if err != nil {
		log.Fatalf("eval %s: %v", path, err)
	}
	fmt.Printf("schema: %s\n", sv.Schema)
	fmt.Printf("value:  %s\n", values.Sprint(sv.Value, sv.Schema))

	if *yamlOutput {
		out, err := serialize.MarshalYAML(e)
		if err != nil {
			log.Fatal(err)
		}
		os.Stdout.Write(out)
	}
}
