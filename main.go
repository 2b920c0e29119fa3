// es-init
// Copyright © 2018 Barthelemy Vessemont
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, version 3 of the License.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/criteo-forks/es-init/cmd"
)

var CLI struct {
	/*es-init prepares a managed Elasticsearch domain before a load job.
	It completes the following actions :
	 * check the domain is the expected cluster and is not red
	 * install the ingest pipeline when it is missing
	 * create the index when it is missing, with 2 shards per data node
	 * exit 0 when the index holds data (delta load), 2 when it is new or
	   empty (full load), 1 on any failure*/
	Provision cmd.ProvisionCmd `cmd:"" help:"Provision the ingest pipeline and index, exit code selects the load job"`
}

func main() {
	ctx := kong.Parse(&CLI)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
	os.Exit(CLI.Provision.ExitCode())
}
