package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// policyFile is the on-disk YAML representation of the matrix, keyed
// role -> resource -> operation -> column list.
type policyFile struct {
	Roles map[string]map[string]map[string][]string `yaml:"roles"`
}

// Parse decodes and validates a YAML policy document.
//
// Validation rejects unknown roles, resources, operations and columns, any
// grant naming the reserved admin role, any grant at all on credit_card,
// and any write grant on price_at_order. A rejected document yields no
// matrix: policy files are all-or-nothing.
func Parse(data []byte) (*Matrix, error) {
	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("policy: decode: %w", err)
	}
	if len(file.Roles) == 0 {
		return nil, fmt.Errorf("policy: document grants no roles")
	}

	grants := make(map[Role]map[Resource]map[Operation]ColumnSet, len(file.Roles))
	for roleName, byResource := range file.Roles {
		role := Role(roleName)
		if role == RoleAdmin {
			return nil, fmt.Errorf("policy: role %q is reserved and cannot carry grants", roleName)
		}
		if !knownRole(role) {
			return nil, fmt.Errorf("policy: unknown role %q", roleName)
		}
		grants[role] = make(map[Resource]map[Operation]ColumnSet, len(byResource))
		for resourceName, byOp := range byResource {
			resource := Resource(resourceName)
			if !KnownResource(resource) {
				return nil, fmt.Errorf("policy: role %q: unknown resource %q", roleName, resourceName)
			}
			grants[role][resource] = make(map[Operation]ColumnSet, len(byOp))
			for opName, cols := range byOp {
				op := Operation(opName)
				if !knownOperation(op) {
					return nil, fmt.Errorf("policy: role %q: unknown operation %q on %q", roleName, opName, resourceName)
				}
				set := make(ColumnSet, len(cols))
				for _, col := range cols {
					if !KnownColumn(resource, col) {
						return nil, fmt.Errorf("policy: role %q: unknown column %s.%s", roleName, resourceName, col)
					}
					if err := checkReserved(resource, col, op); err != nil {
						return nil, fmt.Errorf("policy: role %q: %w", roleName, err)
					}
					set[col] = struct{}{}
				}
				if len(set) == 0 {
					return nil, fmt.Errorf("policy: role %q: empty %s grant on %q", roleName, opName, resourceName)
				}
				grants[role][resource][op] = set
			}
		}
	}

	return newMatrix(grants), nil
}

// Load reads and parses a policy file from disk.
func Load(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy: read %q: %w", path, err)
	}
	return Parse(data)
}

// checkReserved enforces the two schema-level grant prohibitions:
// credit_card has no reader or writer in any role, and price_at_order is an
// append-only snapshot nobody may update.
func checkReserved(resource Resource, column string, op Operation) error {
	if resource == ResourceCustomers && column == "credit_card" {
		return fmt.Errorf("credit_card is not grantable to any role")
	}
	if resource == ResourceOrderItems && column == "price_at_order" && (op == OpUpdate || op == OpInsert) {
		return fmt.Errorf("price_at_order is immutable and cannot carry a write grant")
	}
	return nil
}

func knownRole(role Role) bool {
	for _, r := range Roles() {
		if r == role {
			return true
		}
	}
	return false
}

func knownOperation(op Operation) bool {
	for _, o := range Operations() {
		if o == op {
			return true
		}
	}
	return false
}
