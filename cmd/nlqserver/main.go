/*
Nlqserver starts an HTTP front-end over the query understanding engine.

Usage:

	nlqserver [flags]

Once started, the server listens for HTTP requests and responds using a
small JSON REST protocol: POST /token exchanges a configured API key for a
bearer JWT, and POST /parse (bearer-authenticated) runs a query through the
engine and returns its ranked parse trees.

If a token secret is not given, one is generated and seeded from crypto/rand.
As a consequence, in this mode of operation all tokens are rendered invalid
as soon as the server shuts down. This is suitable for testing, but a secret
must be given via flag or environment variable for production use.

The flags are:

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format. Defaults to the value of environment variable
		NLQUERY_LISTEN_ADDRESS, and if that is not given, to ":8080".

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing JWTs. Defaults to the value of
		environment variable NLQUERY_TOKEN_SECRET. If no secret is given, a
		random one is generated.

	-g, --grammar FILE
		Use the provided TOML grammar artifact. Defaults to the value of
		environment variable NLQUERY_GRAMMAR, and if that is not given, to
		"grammar.toml" in the current working directory.

	-k, --api-key KEY_ID=SECRET
		Register an API key, in KEY_ID=SECRET form. May be given multiple
		times. At least one is required unless NLQUERY_API_KEYS is set to a
		comma-separated list of the same form.

	--db PATH
		Persist the parse-result cache in a SQLite database at PATH. Defaults
		to the value of environment variable NLQUERY_DB, and if that is not
		given, caching is disabled.

	--default-k N
		Number of ranked trees to return per query when the request does not
		specify one. Defaults to 7.
*/
package main

import (
	"crypto/rand"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dekarrin/nlquery"
	"github.com/dekarrin/nlquery/internal/version"
)

const (
	EnvListen   = "NLQUERY_LISTEN_ADDRESS"
	EnvSecret   = "NLQUERY_TOKEN_SECRET"
	EnvGrammar  = "NLQUERY_GRAMMAR"
	EnvDB       = "NLQUERY_DB"
	EnvAPIKeys  = "NLQUERY_API_KEYS"
	defaultAddr = ":8080"
)

var (
	flagListen   = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagSecret   = pflag.StringP("secret", "s", "", "Use the given secret for JWT signing.")
	flagGrammar  = pflag.StringP("grammar", "g", "grammar.toml", "The compiled grammar artifact to load.")
	flagAPIKeys  = pflag.StringArrayP("api-key", "k", nil, "Register an API key, in KEY_ID=SECRET form.")
	flagDB       = pflag.String("db", "", "Persist the parse-result cache in a SQLite database at PATH.")
	flagDefaultK = pflag.Int("default-k", 7, "Number of ranked trees to return per query by default.")
	flagVersion  = pflag.BoolP("version", "V", false, "Give the current version of nlqserver and then exit.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("nlqserver v%s\n", version.Current)
		return
	}

	if len(pflag.Args()) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	addr := os.Getenv(EnvListen)
	if pflag.Lookup("listen").Changed {
		addr = *flagListen
	}
	if addr == "" {
		addr = defaultAddr
	}

	grammarPath := os.Getenv(EnvGrammar)
	if pflag.Lookup("grammar").Changed || grammarPath == "" {
		grammarPath = *flagGrammar
	}

	dbPath := os.Getenv(EnvDB)
	if pflag.Lookup("db").Changed {
		dbPath = *flagDB
	}

	keyPairs := *flagAPIKeys
	if len(keyPairs) == 0 {
		if envKeys := os.Getenv(EnvAPIKeys); envKeys != "" {
			keyPairs = strings.Split(envKeys, ",")
		}
	}
	if len(keyPairs) == 0 {
		fmt.Fprintf(os.Stderr, "At least one API key must be given via --api-key or %s\nDo -h for help.\n", EnvAPIKeys)
		os.Exit(1)
	}
	keys := make(map[string]string, len(keyPairs))
	for _, kp := range keyPairs {
		idSecret := strings.SplitN(kp, "=", 2)
		if len(idSecret) != 2 || idSecret[0] == "" || idSecret[1] == "" {
			fmt.Fprintf(os.Stderr, "Invalid API key %q; must be in KEY_ID=SECRET form\n", kp)
			os.Exit(1)
		}
		keys[idSecret[0]] = idSecret[1]
	}

	secretStr := os.Getenv(EnvSecret)
	if pflag.Lookup("secret").Changed {
		secretStr = *flagSecret
	}
	var secret []byte
	if secretStr != "" {
		secret = []byte(secretStr)
	} else {
		secret = make([]byte, 64)
		if _, err := rand.Read(secret); err != nil {
			fmt.Fprintf(os.Stderr, "Could not generate token secret: %s\n", err.Error())
			os.Exit(1)
		}
		log.Printf("WARN  Using generated token secret; all tokens issued will become invalid at shutdown")
	}

	keyStore, err := newAPIKeyStore(keys)
	if err != nil {
		log.Fatalf("FATAL could not initialize API key store: %s", err.Error())
	}

	eng, err := nlquery.Load(grammarPath, nlquery.WithDefaultK(*flagDefaultK))
	if err != nil {
		log.Fatalf("FATAL could not load grammar %q: %s", grammarPath, err.Error())
	}
	log.Printf("DEBUG Grammar %q loaded", grammarPath)

	var cache *queryCache
	if dbPath != "" {
		cache, err = newQueryCache(dbPath)
		if err != nil {
			log.Fatalf("FATAL could not open query cache %q: %s", dbPath, err.Error())
		}
		defer cache.Close()
		log.Printf("DEBUG Query cache %q opened", dbPath)
	}

	srv := &Server{
		Engine:   eng,
		Cache:    cache,
		Keys:     keyStore,
		Secret:   secret,
		DefaultK: *flagDefaultK,
		Log:      log.Default(),
	}

	log.Printf("INFO  Starting nlqserver on %s...", addr)
	if err := http.ListenAndServe(addr, srv.Router()); err != nil {
		log.Fatalf("FATAL server exited: %s", err.Error())
	}
}
