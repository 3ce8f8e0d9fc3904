// aggregate_write_audit lists service methods that write tables an aggregate
// guards (see domain/aggregates.Contracts) without going through it.
//
//	go run ./scripts/aggregate_write_audit.go [-strict] [-v] [repo-root]
//
// With -strict it exits 1 when a write is neither routed through an aggregate
// nor listed in allowedDirect.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	domainagg "github.com/yungbote/pawclinic-backend/internal/domain/aggregates"
)

// repoTables maps a repo interface to the table it persists.
var repoTables = map[string]string{
	"UserRepo":             "user",
	"UserTokenRepo":        "user_token",
	"ProductCategoryRepo":  "product_category",
	"ProductRepo":          "product",
	"OrderRepo":            "shop_order",
	"PetRepo":              "pet",
	"MedicalRecordRepo":    "medical_record",
	"ClinicServiceRepo":    "clinic_service",
	"AppointmentRepo":      "appointment",
	"HotelRoomRepo":        "hotel_room",
	"HotelReservationRepo": "hotel_reservation",
}

var writeVerbs = []string{"Create", "Update", "UpdateFields", "UpdateStatus", "UpsertBySlug",
	"SoftDelete", "LockByID", "DebitStock", "CreditStock", "AdjustStock"}

var aggregateVerbs = []string{"PlaceOrder", "Book", "Reserve", "TransitionStatus", "SetRoomMaintenance"}

// allowedDirect writes touch guarded tables but none of their derived columns:
// catalog edits, manual stock corrections, room rates.
var allowedDirect = map[string]bool{
	"catalogService.CreateProduct":      true,
	"catalogService.UpdateProduct":      true,
	"catalogService.DeleteProduct":      true,
	"catalogService.AdjustStock":        true,
	"catalogService.UploadProductImage": true,
	"hotelService.CreateRoom":           true,
	"hotelService.UpdateRoom":           true,
}

type dependency struct {
	Field   string `json:"field"`
	Repo    string `json:"repo,omitempty"`
	Table   string `json:"table,omitempty"`
	Guarded bool   `json:"guarded"`
}

type finding struct {
	Service         string   `json:"service"`
	Method          string   `json:"method"`
	Pos             string   `json:"pos"`
	DirectWrites    []string `json:"direct_writes,omitempty"`
	AggregateWrites []string `json:"aggregate_writes,omitempty"`
	Allowed         bool     `json:"allowed"`

	at token.Pos
}

type report struct {
	Direct     []finding               `json:"direct"`
	Unexpected []finding               `json:"unexpected"`
	Aggregated []finding               `json:"aggregated"`
	Services   map[string][]dependency `json:"services"`
	Clean      []finding               `json:"clean,omitempty"`
}

// service collects what a service struct can write through.
type service struct {
	repos      map[string]dependency
	aggregates map[string]string
}

func guarded(table string) bool {
	return slices.ContainsFunc(domainagg.Contracts(), func(c domainagg.Contract) bool {
		return c.Guards(table)
	})
}

func main() {
	strict := flag.Bool("strict", false, "exit 1 on unexpected direct writes")
	verbose := flag.Bool("v", false, "also list methods without guarded writes")
	flag.Parse()
	root := "."
	if flag.NArg() > 0 {
		root = flag.Arg(0)
	}

	fset := token.NewFileSet()
	files, err := parseServices(fset, filepath.Join(root, "internal", "services"))
	if err != nil {
		fail("parse services: %v", err)
	}
	r := audit(fset, files)
	if !*verbose {
		r.Clean = nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		fail("encode: %v", err)
	}
	if *strict && len(r.Unexpected) > 0 {
		fail("%d service methods write guarded tables directly", len(r.Unexpected))
	}
}

func parseServices(fset *token.FileSet, dir string) ([]*ast.File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []*ast.File
	for _, e := range entries {
		if !isSource(e) {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, e.Name()), nil, 0)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func isSource(e fs.DirEntry) bool {
	n := e.Name()
	return !e.IsDir() && strings.HasSuffix(n, ".go") && !strings.HasSuffix(n, "_test.go")
}

func audit(fset *token.FileSet, files []*ast.File) report {
	services := map[string]service{}
	for _, f := range files {
		collectServices(f, services)
	}
	r := report{Services: map[string][]dependency{}}
	for name, svc := range services {
		deps := make([]dependency, 0, len(svc.repos))
		for _, d := range svc.repos {
			deps = append(deps, d)
		}
		slices.SortFunc(deps, func(a, b dependency) int { return strings.Compare(a.Field, b.Field) })
		r.Services[name] = deps
	}
	for _, f := range files {
		for _, decl := range f.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Body == nil {
				continue
			}
			recv, typ := receiver(fd)
			svc, ok := services[typ]
			if !ok {
				continue
			}
			fnd := inspectMethod(fd, recv, svc)
			fnd.Service = typ
			fnd.at = fd.Pos()
			fnd.Pos = fset.Position(fnd.at).String()
			fnd.Allowed = allowedDirect[typ+"."+fnd.Method]
			switch {
			case len(fnd.DirectWrites) > 0:
				r.Direct = append(r.Direct, fnd)
				if !fnd.Allowed {
					r.Unexpected = append(r.Unexpected, fnd)
				}
			case len(fnd.AggregateWrites) > 0:
				r.Aggregated = append(r.Aggregated, fnd)
			default:
				r.Clean = append(r.Clean, fnd)
			}
		}
	}
	for _, list := range [][]finding{r.Direct, r.Unexpected, r.Aggregated, r.Clean} {
		slices.SortFunc(list, func(a, b finding) int { return int(a.at - b.at) })
	}
	return r
}

func collectServices(f *ast.File, out map[string]service) {
	ast.Inspect(f, func(n ast.Node) bool {
		ts, ok := n.(*ast.TypeSpec)
		if !ok {
			return true
		}
		st, ok := ts.Type.(*ast.StructType)
		if !ok {
			return false
		}
		svc := service{repos: map[string]dependency{}, aggregates: map[string]string{}}
		for _, field := range st.Fields.List {
			sel, ok := field.Type.(*ast.SelectorExpr)
			if !ok || len(field.Names) == 0 {
				continue
			}
			pkg, ok := sel.X.(*ast.Ident)
			if !ok {
				continue
			}
			name, typ := field.Names[0].Name, sel.Sel.Name
			switch {
			case pkg.Name == "repos" && strings.HasSuffix(typ, "Repo"):
				table := repoTables[typ]
				svc.repos[name] = dependency{Field: name, Repo: typ, Table: table, Guarded: table != "" && guarded(table)}
			case pkg.Name == "domainagg" && strings.HasSuffix(typ, "Aggregate"):
				svc.aggregates[name] = typ
			}
		}
		if len(svc.repos) > 0 || len(svc.aggregates) > 0 {
			out[ts.Name.Name] = svc
		}
		return false
	})
}

// inspectMethod counts calls of the form recv.field.Verb(...).
func inspectMethod(fd *ast.FuncDecl, recv string, svc service) finding {
	fnd := finding{Method: fd.Name.Name}
	ast.Inspect(fd.Body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		verb, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		field, ok := verb.X.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if id, ok := field.X.(*ast.Ident); !ok || id.Name != recv {
			return true
		}
		target := field.Sel.Name + "." + verb.Sel.Name
		if d, ok := svc.repos[field.Sel.Name]; ok && d.Guarded && slices.Contains(writeVerbs, verb.Sel.Name) {
			fnd.DirectWrites = appendUnique(fnd.DirectWrites, target)
		}
		if _, ok := svc.aggregates[field.Sel.Name]; ok && slices.Contains(aggregateVerbs, verb.Sel.Name) {
			fnd.AggregateWrites = appendUnique(fnd.AggregateWrites, target)
		}
		return true
	})
	return fnd
}

func receiver(fd *ast.FuncDecl) (name, typ string) {
	if fd.Recv == nil || len(fd.Recv.List) == 0 || len(fd.Recv.List[0].Names) == 0 {
		return "", ""
	}
	f := fd.Recv.List[0]
	t := f.Type
	if star, ok := t.(*ast.StarExpr); ok {
		t = star.X
	}
	if id, ok := t.(*ast.Ident); ok {
		return f.Names[0].Name, id.Name
	}
	return "", ""
}

func appendUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
